package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockPublisher implements EventPublisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	published []models.Event
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, event models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return m.err
}

func (m *mockPublisher) types() []models.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EventType, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.EventType)
	}
	return out
}

type testServer struct {
	router http.Handler
	store  *store.Store
	pub    *mockPublisher
}

// newTestServer serves the API from a fresh SQLite file.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, d, err := store.Connect(ctx, "sqlite3://"+filepath.Join(t.TempDir(), "api.db"), store.ConnectOptions{Attempts: 1})
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx, db, d, store.ServiceAPI))

	s := store.New(db, d, store.WithLogger(discardLogger))
	t.Cleanup(func() { _ = s.Close() })

	pub := &mockPublisher{}
	return &testServer{router: NewRouter(s, pub, discardLogger), store: s, pub: pub}
}

// newMockServer serves the API from sqlmock, for failure paths a real
// database cannot be made to produce.
func newMockServer(t *testing.T) (*testServer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(sqlx.NewDb(db, "postgres"), store.Postgres, store.WithLogger(discardLogger))
	pub := &mockPublisher{}
	return &testServer{router: NewRouter(s, pub, discardLogger), store: s, pub: pub}, mock
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, w).Error
}

func (ts *testServer) createUser(t *testing.T, name, email string) models.UserResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/users", `{"name":"`+name+`","email":"`+email+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.UserResponse](t, w)
}

func (ts *testServer) createPost(t *testing.T, userID int64, title, content string) models.PostWithAuthor {
	t.Helper()
	body, err := json.Marshal(map[string]any{"title": title, "content": content, "user_id": userID})
	require.NoError(t, err)
	w := ts.do(t, http.MethodPost, "/posts", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.PostWithAuthor](t, w)
}

func (ts *testServer) doWithHeader(t *testing.T, method, path, body, key, value string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(key, value)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
