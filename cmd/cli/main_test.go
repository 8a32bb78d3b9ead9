package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/activity"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/api"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/config"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	db, d, err := store.Connect(ctx, "sqlite3://"+filepath.Join(t.TempDir(), "api.db"), store.ConnectOptions{Attempts: 1})
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx, db, d, store.ServiceAPI))
	s := store.New(db, d)
	t.Cleanup(func() { _ = s.Close() })

	logger := (&config.Config{LogLevel: "error"}).NewLogger(&bytes.Buffer{})
	srv := httptest.NewServer(api.NewRouter(s, api.NopPublisher{}, logger))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestClient_UserLifecycle(t *testing.T) {
	srv := newAPI(t)
	c := newClient(srv.URL + "/")
	ctx := context.Background()

	require.NoError(t, c.health(ctx))

	u, err := c.createUser(ctx, "Alice", "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	p, err := c.createPost(ctx, u.ID, "Hello", "World")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Author.Name)

	got, err := c.getUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Posts, 1)

	require.NoError(t, c.deleteUser(ctx, u.ID))
	posts, err := c.listPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestClient_APIError(t *testing.T) {
	srv := newAPI(t)
	c := newClient(srv.URL)

	_, err := c.createUser(context.Background(), "", "a@example.com")
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Name cannot be empty", apiErr.Message)

	err = c.deletePost(context.Background(), 42)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCommands_UsersAndPosts(t *testing.T) {
	srv := newAPI(t)

	out, err := execute(t, "--api-url", srv.URL, "users", "create", "--name", "Alice", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "created user #1 Alice <alice@example.com>")

	out, err = execute(t, "--api-url", srv.URL, "posts", "create", "--user-id", "1", "--title", "Hello", "--content", "World")
	require.NoError(t, err)
	assert.Contains(t, out, `created post #1 "Hello" by Alice`)

	out, err = execute(t, "--api-url", srv.URL, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "1 user(s)")

	out, err = execute(t, "--api-url", srv.URL, "users", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Hello")

	_, err = execute(t, "--api-url", srv.URL, "users", "get", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)

	out, err = execute(t, "--api-url", srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "api healthy")
}

func TestCommands_Activity(t *testing.T) {
	ctx := context.Background()
	url := "sqlite3://" + filepath.Join(t.TempDir(), "activity.db")

	db, d, err := store.Connect(ctx, url, store.ConnectOptions{Attempts: 1})
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx, db, d, store.ServiceActivity))
	s := store.New(db, d)
	c := activity.NewConsumer(s, (&config.Config{}).NewLogger(&bytes.Buffer{}))

	for _, id := range []string{"e1", "e2"} {
		_, err := c.Record(ctx, models.Event{EventID: id, EventType: models.EventUserCreated, Timestamp: time.Now()})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	out, err := execute(t, "activity", "--database-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "user.created")
	assert.Contains(t, out, "All-Time Totals")
	assert.Contains(t, out, "##"+Reset+" 2")
}
