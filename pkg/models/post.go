package models

import "time"

// Post is an entry written by a user.
type Post struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UserID    int64     `json:"user_id" db:"user_id"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title   *string `json:"title" example:"My Amazing Post"`
	Content *string `json:"content" example:"This is the content of my post!"`
	UserID  *int64  `json:"user_id" example:"1"`
}

// UpdatePostRequest is the request body for a partial post update.
// The owning user cannot be changed.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" example:"An Even Better Title"`
	Content *string `json:"content,omitempty" example:"Rewritten content."`
}

// PostResponse is the wire form of a post without its author.
type PostResponse struct {
	ID        int64  `json:"id" example:"1"`
	Title     string `json:"title" example:"My Amazing Post"`
	Content   string `json:"content" example:"This is the content of my post!"`
	CreatedAt string `json:"created_at" example:"2024-01-02T15:04:05Z"`
	UserID    int64  `json:"user_id" example:"1"`
}

// PostWithAuthor is a post together with its owning user. The author never
// carries its posts.
type PostWithAuthor struct {
	PostResponse
	Author UserResponse `json:"author"`
}

// NewPostResponse serializes p.
func NewPostResponse(p Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: FormatTimestamp(p.CreatedAt),
		UserID:    p.UserID,
	}
}

// NewPostWithAuthor serializes p with author embedded.
func NewPostWithAuthor(p Post, author User) PostWithAuthor {
	return PostWithAuthor{
		PostResponse: NewPostResponse(p),
		Author:       NewUserResponse(author),
	}
}

// PostPatch holds normalized fields for a partial update. Nil fields are left
// unchanged.
type PostPatch struct {
	Title   *string
	Content *string
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}
