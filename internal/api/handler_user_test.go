package api

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

func TestCreateUser_Success(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/users", `{"name":"Alice Smith","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Alice Smith", body["name"])
	assert.Equal(t, "alice@example.com", body["email"])
	_, err := time.Parse(time.RFC3339Nano, body["created_at"].(string))
	assert.NoError(t, err, "created_at must be ISO-8601")
	assert.NotContains(t, body, "posts")

	assert.Equal(t, []models.EventType{models.EventUserCreated}, ts.pub.types())
}

func TestCreateUser_NormalizesFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/users", `{"name":"  Alice  ","email":"  ALICE@Example.com "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[models.UserResponse](t, w)

	w = ts.do(t, http.MethodGet, "/users/"+strconv.FormatInt(created.ID, 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[models.UserWithPosts](t, w)

	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.NotNil(t, got.Posts)
	assert.Empty(t, got.Posts)
}

func TestCreateUser_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty name", `{"name":"","email":"a@example.com"}`, "Name cannot be empty"},
		{"blank name", `{"name":"   ","email":"a@example.com"}`, "Name cannot be empty"},
		{"missing name", `{"email":"a@example.com"}`, "Name cannot be empty"},
		{"email without at", `{"name":"Bad User","email":"invalid-email"}`, "Invalid email format"},
		{"missing email", `{"name":"Bad User"}`, "Invalid email format"},
		{"empty object", `{}`, "No data provided"},
		{"null body", `null`, "No data provided"},
		{"malformed", `{invalid`, "Invalid JSON"},
		{"empty array", `[]`, "No data provided"},
		{"non-empty array", `[{"name":"A"}]`, "Invalid JSON"},
		{"wrong type", `{"name":5,"email":"a@example.com"}`, "Invalid value for name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			w := ts.do(t, http.MethodPost, "/users", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.message, errorMessage(t, w))

			w = ts.do(t, http.MethodGet, "/users", "")
			assert.Empty(t, decodeBody[[]models.UserResponse](t, w), "no row may be persisted")
			assert.Empty(t, ts.pub.types())
		})
	}
}

func TestCreateUser_EmptyBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/users", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data provided", errorMessage(t, w))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "Alice", "alice@example.com")

	w := ts.do(t, http.MethodPost, "/users", `{"name":"Other","email":"ALICE@example.com"}`)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "Email already exists", errorMessage(t, w))
}

func TestCreateUser_InternalErrorIsGeneric(t *testing.T) {
	ts, mock := newMockServer(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(assert.AnError)

	w := ts.do(t, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create user", errorMessage(t, w))
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestCreateUser_PublishFailureDoesNotFailRequest(t *testing.T) {
	ts := newTestServer(t)
	ts.pub.err = assert.AnError

	w := ts.do(t, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateUser_CorrelationIDPassedToEvent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doWithHeader(t, http.MethodPost, "/users", `{"name":"Corr Test","email":"corr@example.com"}`,
		"X-Correlation-ID", "test-corr-id-123")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "test-corr-id-123", w.Header().Get("X-Correlation-ID"))

	require.Len(t, ts.pub.published, 1)
	assert.Equal(t, "test-corr-id-123", ts.pub.published[0].CorrelationID)
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	alice := ts.createUser(t, "Alice", "alice@example.com")
	ts.createPost(t, alice.ID, "Hello", "World")
	ts.createUser(t, "Bob", "bob@example.com")

	w = ts.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeBody[[]map[string]any](t, w)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0]["name"])
	assert.Equal(t, "Bob", users[1]["name"])
	assert.NotContains(t, users[0], "posts", "list must not embed posts")
}

func TestGetUser_NotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/users/999", "/users/abc", "/users/-1"} {
		w := ts.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "User not found", errorMessage(t, w), path)
	}
}

func TestGetUser_IncludesPostsWithoutAuthor(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")
	post := ts.createPost(t, alice.ID, "My Amazing Post", "This is the content of my post!")

	w := ts.do(t, http.MethodGet, "/users/"+strconv.FormatInt(alice.ID, 10), "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]any](t, w)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	first := posts[0].(map[string]any)
	assert.Equal(t, float64(post.ID), first["id"])
	assert.Equal(t, "My Amazing Post", first["title"])
	assert.NotContains(t, first, "author")
}

func TestUpdateUser_NameOnly(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice Smith", "alice@example.com")
	path := "/users/" + strconv.FormatInt(alice.ID, 10)

	w := ts.do(t, http.MethodPatch, path, `{"name":"Alice Johnson"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[models.UserResponse](t, w)
	assert.Equal(t, "Alice Johnson", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.Equal(t, alice.CreatedAt, updated.CreatedAt)

	assert.Equal(t, []models.EventType{models.EventUserCreated, models.EventUserUpdated}, ts.pub.types())
}

func TestUpdateUser_InvalidEmailLeavesRowUnchanged(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")
	path := "/users/" + strconv.FormatInt(alice.ID, 10)

	w := ts.do(t, http.MethodPatch, path, `{"name":"Changed","email":"bad"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", errorMessage(t, w))

	got := decodeBody[models.UserWithPosts](t, ts.do(t, http.MethodGet, path, ""))
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "Alice", got.Name, "a rejected patch must not apply any field")
}

func TestUpdateUser_NullFieldsRejected(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")
	path := "/users/" + strconv.FormatInt(alice.ID, 10)

	w := ts.do(t, http.MethodPatch, path, `{"name":null}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name cannot be empty", errorMessage(t, w))

	w = ts.do(t, http.MethodPatch, path, `{"email":null}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", errorMessage(t, w))

	got := decodeBody[models.UserWithPosts](t, ts.do(t, http.MethodGet, path, ""))
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, []models.EventType{models.EventUserCreated}, ts.pub.types())
}

func TestUpdateUser_EmailNormalized(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")

	w := ts.do(t, http.MethodPatch, "/users/"+strconv.FormatInt(alice.ID, 10), `{"email":" New@Example.COM "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new@example.com", decodeBody[models.UserResponse](t, w).Email)
}

func TestUpdateUser_Errors(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")
	ts.createUser(t, "Bob", "bob@example.com")
	path := "/users/" + strconv.FormatInt(alice.ID, 10)

	w := ts.do(t, http.MethodPatch, "/users/999", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPatch, path, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data provided", errorMessage(t, w))

	w = ts.do(t, http.MethodPatch, path, `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name cannot be empty", errorMessage(t, w))

	w = ts.do(t, http.MethodPatch, path, `{"email":"bob@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateUser_UnknownFieldsIgnored(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")

	w := ts.do(t, http.MethodPatch, "/users/"+strconv.FormatInt(alice.ID, 10), `{"nickname":"ally"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Alice", decodeBody[models.UserResponse](t, w).Name)
}

func TestDeleteUser_CascadesToPosts(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "Alice", "alice@example.com")
	bob := ts.createUser(t, "Bob", "bob@example.com")
	p1 := ts.createPost(t, alice.ID, "one", "body")
	p2 := ts.createPost(t, alice.ID, "two", "body")
	kept := ts.createPost(t, bob.ID, "bob", "body")

	w := ts.do(t, http.MethodDelete, "/users/"+strconv.FormatInt(alice.ID, 10), "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	for _, id := range []int64{p1.ID, p2.ID} {
		w = ts.do(t, http.MethodGet, "/posts/"+strconv.FormatInt(id, 10), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w = ts.do(t, http.MethodGet, "/posts/"+strconv.FormatInt(kept.ID, 10), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/users/"+strconv.FormatInt(alice.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Contains(t, ts.pub.types(), models.EventUserDeleted)
}
