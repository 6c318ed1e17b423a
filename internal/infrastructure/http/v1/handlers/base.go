package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/infrastructure/http/v1/dto"
	"atelier/internal/infrastructure/http/v1/middleware"
	"atelier/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	now func() time.Time
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{now: time.Now}
}

// Now returns the current time; request dates default to its day.
func (h *BaseHandler) Now() time.Time {
	return h.now()
}

// BindJSON binds and validates the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParamID parses the path parameter name as an id.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", name).
			WithDetail("value", c.Param(name)))
		return id.ID{}, false
	}
	return v, true
}

// Error registers err on the gin context and aborts the request.
// middleware.ErrorHandler renders the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses an integer query parameter with a default.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func (h *BaseHandler) respond(c *gin.Context, status int, body dto.SuccessResponse) {
	if err := middleware.CompleteIdempotency(c, status, body); err != nil {
		logger.Warn(c.Request.Context(), "failed to complete idempotency key", "error", err)
	}
	c.JSON(status, body)
}

// OK sends 200 with data.
func (h *BaseHandler) OK(c *gin.Context, message string, data any) {
	h.respond(c, http.StatusOK, dto.OK(message, data))
}

// Created sends 201 with data.
func (h *BaseHandler) Created(c *gin.Context, message string, data any) {
	h.respond(c, http.StatusCreated, dto.OK(message, data))
}
