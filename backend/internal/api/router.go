// Package api exposes the matching orchestrator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/matching"
	"github.com/Amaan-N-K/suitemate/backend/internal/metrics"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// Handler serves the matching API
type Handler struct {
	orch   *matching.Orchestrator
	logger *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route.
// gatherer backs /metrics and should be the registry m was created with.
func NewRouter(orch *matching.Orchestrator, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	h := &Handler{orch: orch, logger: log}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(instrument(m))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.POST("/users", h.register)
		api.GET("/users/:id", h.getUser)
		api.PUT("/users/:id", h.updateUser)
		api.GET("/users/:id/suggestions", h.suggestions)
		api.GET("/users/:id/exact", h.exact)
		api.GET("/users/:id/closest", h.closest)
		api.POST("/users/:id/requests", h.requestMatch)
		api.GET("/users/:id/requests", h.pendingRequests)
		api.GET("/users/:id/matches", h.matches)
		api.GET("/users/:id/community", h.community)
		api.GET("/communities", h.communities)
		api.POST("/suggestions/infer", h.inferSuggestions)
	}

	return router
}

func (h *Handler) register(c *gin.Context) {
	var u user.Record
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	registered, err := h.orch.Register(c.Request.Context(), u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, registered)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	u, err := h.orch.User(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var u user.Record
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.orch.UpdatePreferences(c.Request.Context(), id, u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) suggestions(c *gin.Context) {
	h.list(c, "suggestions", h.orch.Suggestions)
}

func (h *Handler) exact(c *gin.Context) {
	h.list(c, "matches", h.orch.Exact)
}

func (h *Handler) closest(c *gin.Context) {
	h.list(c, "matches", h.orch.Closest)
}

func (h *Handler) matches(c *gin.Context) {
	h.list(c, "matches", h.orch.CurrentMatches)
}

func (h *Handler) pendingRequests(c *gin.Context) {
	h.list(c, "requests", h.orch.PendingRequests)
}

func (h *Handler) community(c *gin.Context) {
	h.list(c, "community", h.orch.Community)
}

func (h *Handler) requestMatch(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req struct {
		OtherID *int `json:"other_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.orch.RequestMatch(c.Request.Context(), id, *req.OtherID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": id,
		"matched": *req.OtherID,
		"matches": matches,
	})
}

func (h *Handler) communities(c *gin.Context) {
	communities := h.orch.Communities(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":       len(communities),
		"communities": communities,
	})
}

func (h *Handler) inferSuggestions(c *gin.Context) {
	added, err := h.orch.InferSuggestions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

type listFunc func(ctx context.Context, id int) ([]user.Record, error)

// list serves a per-user list under key
func (h *Handler) list(c *gin.Context, key string, fetch listFunc) {
	id, ok := userID(c)
	if !ok {
		return
	}
	users, err := fetch(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": id,
		"count":   len(users),
		key:       users,
	})
}

func userID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// fail maps domain errors onto HTTP statuses
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		notFound   *apperrors.UserNotFoundError
		transition *apperrors.InvalidTransitionError
		duplicate  *apperrors.DuplicateUserError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &transition), errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation),
		apperrors.IsErrorType(err, apperrors.ErrorTypePreference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
