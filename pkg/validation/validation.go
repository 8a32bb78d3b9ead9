// Package validation checks and normalizes user and post input before it is
// persisted. Every check returns either the normalized value or an *Error
// describing the first failing field.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

// Kind classifies a validation failure.
type Kind string

const (
	EmptyField         Kind = "empty_field"
	InvalidEmailFormat Kind = "invalid_email_format"
	MissingReference   Kind = "missing_reference"
	ReferenceNotFound  Kind = "reference_not_found"
)

// Error is a rejected input field. Message is safe to return to clients.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsReferenceNotFound reports whether err is a ReferenceNotFound failure.
func IsReferenceNotFound(err error) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == ReferenceNotFound
}

// UnknownUser is the failure for a user_id that matches no user.
func UnknownUser() *Error {
	return &Error{Kind: ReferenceNotFound, Field: "user_id", Message: "User not found"}
}

type rule struct {
	tag     string
	kind    Kind
	message string
}

var rules = map[string]rule{
	"name":    {tag: "required", kind: EmptyField, message: "Name cannot be empty"},
	"email":   {tag: "required,contains=@", kind: InvalidEmailFormat, message: "Invalid email format"},
	"title":   {tag: "required", kind: EmptyField, message: "Title cannot be empty"},
	"content": {tag: "required", kind: EmptyField, message: "Content cannot be empty"},
	"user_id": {tag: "required", kind: MissingReference, message: "User ID is required"},
}

var validate = validator.New()

func check(field string, value any) error {
	r := rules[field]
	if err := validate.Var(value, r.tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &Error{Kind: r.kind, Field: field, Message: r.message}
		}
		return err
	}
	return nil
}

func text(field string, raw *string) (string, error) {
	var v string
	if raw != nil {
		v = strings.TrimSpace(*raw)
	}
	if err := check(field, v); err != nil {
		return "", err
	}
	return v, nil
}

// Name trims raw and rejects it when empty or absent.
func Name(raw *string) (string, error) { return text("name", raw) }

// Title trims raw and rejects it when empty or absent.
func Title(raw *string) (string, error) { return text("title", raw) }

// Content trims raw and rejects it when empty or absent.
func Content(raw *string) (string, error) { return text("content", raw) }

// Email lower-cases and trims raw. It only requires an "@" to be present.
func Email(raw *string) (string, error) {
	var v string
	if raw != nil {
		v = strings.ToLower(strings.TrimSpace(*raw))
	}
	if err := check("email", v); err != nil {
		return "", err
	}
	return v, nil
}

// UserID rejects an absent or zero reference. Existence is checked by the store.
func UserID(raw *int64) (int64, error) {
	var v int64
	if raw != nil {
		v = *raw
	}
	if err := check("user_id", v); err != nil {
		return 0, err
	}
	return v, nil
}

// NewUser validates a creation request and returns the normalized user.
func NewUser(req models.CreateUserRequest) (models.User, error) {
	name, err := Name(req.Name)
	if err != nil {
		return models.User{}, err
	}
	email, err := Email(req.Email)
	if err != nil {
		return models.User{}, err
	}
	return models.User{Name: name, Email: email}, nil
}

// NewPost validates a creation request and returns the normalized post.
// The author reference is checked first; callers look the author up before
// the text fields are judged.
func NewPost(req models.CreatePostRequest) (models.Post, error) {
	userID, err := UserID(req.UserID)
	if err != nil {
		return models.Post{}, err
	}
	title, err := Title(req.Title)
	if err != nil {
		return models.Post{}, err
	}
	content, err := Content(req.Content)
	if err != nil {
		return models.Post{}, err
	}
	return models.Post{Title: title, Content: content, UserID: userID}, nil
}

// UserPatch re-validates each supplied field of an update request.
func UserPatch(req models.UpdateUserRequest) (models.UserPatch, error) {
	var patch models.UserPatch
	if req.Name != nil {
		name, err := Name(req.Name)
		if err != nil {
			return models.UserPatch{}, err
		}
		patch.Name = &name
	}
	if req.Email != nil {
		email, err := Email(req.Email)
		if err != nil {
			return models.UserPatch{}, err
		}
		patch.Email = &email
	}
	return patch, nil
}

// PostPatch re-validates each supplied field of an update request.
func PostPatch(req models.UpdatePostRequest) (models.PostPatch, error) {
	var patch models.PostPatch
	if req.Title != nil {
		title, err := Title(req.Title)
		if err != nil {
			return models.PostPatch{}, err
		}
		patch.Title = &title
	}
	if req.Content != nil {
		content, err := Content(req.Content)
		if err != nil {
			return models.PostPatch{}, err
		}
		patch.Content = &content
	}
	return patch, nil
}
