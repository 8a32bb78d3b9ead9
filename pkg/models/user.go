package models

import "time"

// User represents a user in the system.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateUserRequest is the request body for creating a user.
// Fields are pointers so an absent field can be told apart from an empty one.
type CreateUserRequest struct {
	Name  *string `json:"name" example:"Alice Smith"`
	Email *string `json:"email" example:"alice@example.com"`
}

// UpdateUserRequest is the request body for a partial user update.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" example:"Alice Johnson"`
	Email *string `json:"email,omitempty" example:"alice.johnson@example.com"`
}

// UserResponse is the wire form of a user without related posts.
type UserResponse struct {
	ID        int64  `json:"id" example:"1"`
	Name      string `json:"name" example:"Alice Smith"`
	Email     string `json:"email" example:"alice@example.com"`
	CreatedAt string `json:"created_at" example:"2024-01-02T15:04:05Z"`
}

// UserWithPosts is a user together with the posts it owns. Nested posts never
// carry their author.
type UserWithPosts struct {
	UserResponse
	Posts []PostResponse `json:"posts"`
}

// NewUserResponse serializes u.
func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: FormatTimestamp(u.CreatedAt),
	}
}

// NewUserWithPosts serializes u and the given posts, which must belong to u.
func NewUserWithPosts(u User, posts []Post) UserWithPosts {
	out := UserWithPosts{
		UserResponse: NewUserResponse(u),
		Posts:        make([]PostResponse, 0, len(posts)),
	}
	for _, p := range posts {
		out.Posts = append(out.Posts, NewPostResponse(p))
	}
	return out
}

// FormatTimestamp renders t as an ISO-8601 string in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UserPatch holds normalized fields for a partial update. Nil fields are left
// unchanged.
type UserPatch struct {
	Name  *string
	Email *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil
}
