package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/middleware"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
)

// NewRouter creates and configures the Gin router.
func NewRouter(s *store.Store, pub EventPublisher, logger *slog.Logger) *gin.Engine {
	users := NewUserHandler(s, pub, logger)
	posts := NewPostHandler(s, pub, logger)

	r := gin.New()

	// Middleware
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"correlation_id", middleware.GetCorrelationID(c),
			"panic", recovered,
		)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/", Home)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// User routes
	r.GET("/users", users.ListUsers)
	r.POST("/users", users.CreateUser)
	r.GET("/users/:id", users.GetUser)
	r.PATCH("/users/:id", users.UpdateUser)
	r.DELETE("/users/:id", users.DeleteUser)

	// Post routes
	r.GET("/posts", posts.ListPosts)
	r.POST("/posts", posts.CreatePost)
	r.GET("/posts/:id", posts.GetPost)
	r.PATCH("/posts/:id", posts.UpdatePost)
	r.DELETE("/posts/:id", posts.DeletePost)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found")
	})

	return r
}

// Home godoc
// @Summary      API descriptor
// @Description  Lists the available endpoint groups
// @Tags         meta
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       / [get]
func Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "REST API is running!",
		"endpoints": gin.H{
			"users": "/users",
			"posts": "/posts",
		},
	})
}
