package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/middleware"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/validation"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	Store     *store.Store
	Publisher EventPublisher
	Logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s *store.Store, pub EventPublisher, logger *slog.Logger) *UserHandler {
	return &UserHandler{Store: s, Publisher: pub, Logger: logger}
}

// ListUsers godoc
// @Summary      List all users
// @Description  Returns all users without their posts
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.UserResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch users", err)
		return
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, models.NewUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// GetUser godoc
// @Summary      Get a user by ID
// @Description  Returns a single user with the posts it owns
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.UserWithPosts
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := h.lookup(c)
	if !ok {
		return
	}

	posts, err := h.Store.ListPostsByUser(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch user", err)
		return
	}

	c.JSON(http.StatusOK, models.NewUserWithPosts(user, posts))
}

// CreateUser godoc
// @Summary      Create a new user
// @Description  Creates a user and publishes a user.created event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateUserRequest  true  "Create user request"
// @Success      201      {object}  models.UserResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if _, ok := bindBody(c, &req); !ok {
		return
	}

	user, err := validation.NewUser(req)
	if err != nil {
		respondInvalid(c, h.Logger, "Failed to create user", err)
		return
	}

	user, err = h.Store.CreateUser(c.Request.Context(), user)
	if errors.Is(err, store.ErrDuplicateEmail) {
		respondError(c, http.StatusConflict, "Email already exists")
		return
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to create user", err)
		return
	}

	resp := models.NewUserResponse(user)
	publish(c, h.Publisher, h.Logger, models.EventUserCreated, resp)
	h.Logger.Info("user created", "id", user.ID, "correlation_id", middleware.GetCorrelationID(c))
	c.JSON(http.StatusCreated, resp)
}

// UpdateUser godoc
// @Summary      Partially update a user
// @Description  Changes only the supplied fields and publishes a user.updated event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "User ID"
// @Param        request  body      models.UpdateUserRequest  true  "Fields to change"
// @Success      200      {object}  models.UserResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	current, ok := h.lookup(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	fields, ok := bindBody(c, &req)
	if !ok {
		return
	}
	supplied(fields, "name", &req.Name)
	supplied(fields, "email", &req.Email)

	patch, err := validation.UserPatch(req)
	if err != nil {
		respondInvalid(c, h.Logger, "Failed to update user", err)
		return
	}

	user, err := h.Store.UpdateUser(c.Request.Context(), current.ID, patch)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, "Email already exists")
		return
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, h.Logger, "Failed to update user", err)
		return
	}

	resp := models.NewUserResponse(user)
	publish(c, h.Publisher, h.Logger, models.EventUserUpdated, resp)
	c.JSON(http.StatusOK, resp)
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Deletes a user together with all of its posts and publishes a user.deleted event
// @Tags         users
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, ok := h.lookup(c)
	if !ok {
		return
	}

	err := h.Store.DeleteUser(c.Request.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to delete user", err)
		return
	}

	publish(c, h.Publisher, h.Logger, models.EventUserDeleted, models.DeletedPayload{ID: user.ID})
	c.Status(http.StatusNoContent)
}

// lookup loads the user named by the path, answering 404 when there is none.
func (h *UserHandler) lookup(c *gin.Context) (models.User, bool) {
	id, ok := parseID(c)
	if !ok {
		respondError(c, http.StatusNotFound, "User not found")
		return models.User{}, false
	}

	user, err := h.Store.GetUser(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return models.User{}, false
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch user", err)
		return models.User{}, false
	}
	return user, true
}
