package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/validation"
)

// PostHandler handles post-related HTTP requests.
type PostHandler struct {
	Store     *store.Store
	Publisher EventPublisher
	Logger    *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(s *store.Store, pub EventPublisher, logger *slog.Logger) *PostHandler {
	return &PostHandler{Store: s, Publisher: pub, Logger: logger}
}

// ListPosts godoc
// @Summary      List all posts
// @Description  Returns all posts, each with its author
// @Tags         posts
// @Produce      json
// @Success      200  {array}   models.PostWithAuthor
// @Failure      500  {object}  ErrorResponse
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	posts, err := h.Store.ListPosts(ctx)
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch posts", err)
		return
	}

	ids := make([]int64, 0, len(posts))
	seen := make(map[int64]bool, len(posts))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	authors, err := h.Store.GetUsersByIDs(ctx, ids)
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch posts", err)
		return
	}

	out := make([]models.PostWithAuthor, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			// Deleted between the two queries.
			continue
		}
		out = append(out, models.NewPostWithAuthor(p, author))
	}
	c.JSON(http.StatusOK, out)
}

// GetPost godoc
// @Summary      Get a post by ID
// @Description  Returns a single post with its author
// @Tags         posts
// @Produce      json
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  models.PostWithAuthor
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondWithAuthor(c, http.StatusOK, post, "Failed to fetch post")
}

// CreatePost godoc
// @Summary      Create a new post
// @Description  Creates a post for an existing user and publishes a post.created event
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreatePostRequest  true  "Create post request"
// @Success      201      {object}  models.PostWithAuthor
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if _, ok := bindBody(c, &req); !ok {
		return
	}

	post, err := h.validatePost(c, req)
	if err != nil {
		respondInvalid(c, h.Logger, "Failed to create post", err)
		return
	}

	post, err = h.Store.CreatePost(c.Request.Context(), post)
	if errors.Is(err, store.ErrUserNotFound) {
		respondInvalid(c, h.Logger, "Failed to create post", validation.UnknownUser())
		return
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to create post", err)
		return
	}

	publish(c, h.Publisher, h.Logger, models.EventPostCreated, models.NewPostResponse(post))
	h.respondWithAuthor(c, http.StatusCreated, post, "Failed to create post")
}

// validatePost checks the author reference, then that the author exists,
// then the text fields.
func (h *PostHandler) validatePost(c *gin.Context, req models.CreatePostRequest) (models.Post, error) {
	userID, err := validation.UserID(req.UserID)
	if err != nil {
		return models.Post{}, err
	}
	if _, err := h.Store.GetUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, validation.UnknownUser()
		}
		return models.Post{}, err
	}
	return validation.NewPost(req)
}

// UpdatePost godoc
// @Summary      Partially update a post
// @Description  Changes only the supplied title and/or content and publishes a post.updated event
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Post ID"
// @Param        request  body      models.UpdatePostRequest  true  "Fields to change"
// @Success      200      {object}  models.PostWithAuthor
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /posts/{id} [patch]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	current, ok := h.lookup(c)
	if !ok {
		return
	}

	var req models.UpdatePostRequest
	fields, ok := bindBody(c, &req)
	if !ok {
		return
	}
	supplied(fields, "title", &req.Title)
	supplied(fields, "content", &req.Content)

	patch, err := validation.PostPatch(req)
	if err != nil {
		respondInvalid(c, h.Logger, "Failed to update post", err)
		return
	}

	post, err := h.Store.UpdatePost(c.Request.Context(), current.ID, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to update post", err)
		return
	}

	publish(c, h.Publisher, h.Logger, models.EventPostUpdated, models.NewPostResponse(post))
	h.respondWithAuthor(c, http.StatusOK, post, "Failed to update post")
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Deletes a post and publishes a post.deleted event
// @Tags         posts
// @Param        id   path  int  true  "Post ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	post, ok := h.lookup(c)
	if !ok {
		return
	}

	err := h.Store.DeletePost(c.Request.Context(), post.ID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to delete post", err)
		return
	}

	publish(c, h.Publisher, h.Logger, models.EventPostDeleted, models.DeletedPayload{ID: post.ID})
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) lookup(c *gin.Context) (models.Post, bool) {
	id, ok := parseID(c)
	if !ok {
		respondError(c, http.StatusNotFound, "Post not found")
		return models.Post{}, false
	}

	post, err := h.Store.GetPost(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return models.Post{}, false
	}
	if err != nil {
		internalError(c, h.Logger, "Failed to fetch post", err)
		return models.Post{}, false
	}
	return post, true
}

// respondWithAuthor fetches the post's author and writes the combined body.
func (h *PostHandler) respondWithAuthor(c *gin.Context, status int, post models.Post, failure string) {
	author, err := h.Store.GetUser(c.Request.Context(), post.UserID)
	if err != nil {
		internalError(c, h.Logger, failure, err)
		return
	}
	c.JSON(status, models.NewPostWithAuthor(post, author))
}
