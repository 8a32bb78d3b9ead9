package models

import (
	"encoding/json"
	"testing"
	"time"
)

var fixedTime = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestUserResponse_Fields(t *testing.T) {
	u := User{ID: 1, Name: "Alice Smith", Email: "alice@example.com", CreatedAt: fixedTime}

	got := decode(t, NewUserResponse(u))

	if got["id"] != float64(1) {
		t.Errorf("id: got %v", got["id"])
	}
	if got["name"] != "Alice Smith" || got["email"] != "alice@example.com" {
		t.Errorf("unexpected name/email: %v", got)
	}
	if got["created_at"] != "2024-03-09T10:30:00Z" {
		t.Errorf("created_at: got %v", got["created_at"])
	}
	if _, ok := got["posts"]; ok {
		t.Error("plain user response must not carry posts")
	}
}

func TestUserWithPosts_EmptyListIsPresent(t *testing.T) {
	u := User{ID: 1, Name: "Alice", Email: "a@example.com", CreatedAt: fixedTime}

	got := decode(t, NewUserWithPosts(u, nil))

	posts, ok := got["posts"].([]any)
	if !ok {
		t.Fatalf("expected posts array, got %T", got["posts"])
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts, got %d", len(posts))
	}
}

func TestUserWithPosts_NestedPostsHaveNoAuthor(t *testing.T) {
	u := User{ID: 1, Name: "Alice", Email: "a@example.com", CreatedAt: fixedTime}
	posts := []Post{
		{ID: 10, Title: "First", Content: "one", CreatedAt: fixedTime, UserID: 1},
		{ID: 11, Title: "Second", Content: "two", CreatedAt: fixedTime, UserID: 1},
	}

	got := decode(t, NewUserWithPosts(u, posts))

	list := got["posts"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(list))
	}
	for i, item := range list {
		p := item.(map[string]any)
		if _, ok := p["author"]; ok {
			t.Errorf("post %d must not carry an author", i)
		}
	}
	if list[0].(map[string]any)["title"] != "First" {
		t.Errorf("expected posts in given order, got %v", list)
	}
}

func TestPostWithAuthor_AuthorHasNoPosts(t *testing.T) {
	u := User{ID: 7, Name: "Bob", Email: "bob@example.com", CreatedAt: fixedTime}
	p := Post{ID: 3, Title: "Hello", Content: "World", CreatedAt: fixedTime, UserID: 7}

	got := decode(t, NewPostWithAuthor(p, u))

	if got["user_id"] != float64(7) {
		t.Errorf("user_id: got %v", got["user_id"])
	}
	author, ok := got["author"].(map[string]any)
	if !ok {
		t.Fatalf("expected author object, got %T", got["author"])
	}
	if author["email"] != "bob@example.com" {
		t.Errorf("author email: got %v", author["email"])
	}
	if _, ok := author["posts"]; ok {
		t.Error("author must not carry posts")
	}
}

func TestFormatTimestamp_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 9, 12, 30, 0, 0, loc)

	if got := FormatTimestamp(ts); got != "2024-03-09T10:30:00Z" {
		t.Errorf("expected 2024-03-09T10:30:00Z, got %s", got)
	}
}

func TestCreateUserRequest_AbsentFields(t *testing.T) {
	var req CreateUserRequest
	if err := json.Unmarshal([]byte(`{"name":"Bob Smith"}`), &req); err != nil {
		t.Fatalf("failed to unmarshal CreateUserRequest: %v", err)
	}
	if req.Name == nil || *req.Name != "Bob Smith" {
		t.Errorf("Name: expected %q, got %v", "Bob Smith", req.Name)
	}
	if req.Email != nil {
		t.Errorf("Email: expected absent, got %q", *req.Email)
	}
}
