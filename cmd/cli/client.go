package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/api"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// client talks to a running api-service.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = "unexpected response"
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *client) listUsers(ctx context.Context) ([]models.UserResponse, error) {
	var out []models.UserResponse
	return out, c.do(ctx, http.MethodGet, "/users", nil, &out)
}

func (c *client) getUser(ctx context.Context, id int64) (models.UserWithPosts, error) {
	var out models.UserWithPosts
	return out, c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &out)
}

func (c *client) createUser(ctx context.Context, name, email string) (models.UserResponse, error) {
	var out models.UserResponse
	req := models.CreateUserRequest{Name: &name, Email: &email}
	return out, c.do(ctx, http.MethodPost, "/users", req, &out)
}

func (c *client) deleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}

func (c *client) listPosts(ctx context.Context) ([]models.PostWithAuthor, error) {
	var out []models.PostWithAuthor
	return out, c.do(ctx, http.MethodGet, "/posts", nil, &out)
}

func (c *client) createPost(ctx context.Context, userID int64, title, content string) (models.PostWithAuthor, error) {
	var out models.PostWithAuthor
	req := models.CreatePostRequest{Title: &title, Content: &content, UserID: &userID}
	return out, c.do(ctx, http.MethodPost, "/posts", req, &out)
}

func (c *client) deletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}
