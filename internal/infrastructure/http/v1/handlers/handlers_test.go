package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, r *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth_Live(t *testing.T) {
	r := gin.New()
	h := NewHealthHandler("test", nil)
	r.GET("/health/live", h.Live)

	w, body := serve(t, r, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_Ready(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		status int
		state  string
	}{
		{
			name:   "all healthy",
			checks: map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })},
			status: http.StatusOK,
			state:  "ok",
		},
		{
			name: "one down",
			checks: map[string]Pinger{
				"postgres": PingFunc(func(context.Context) error { return nil }),
				"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			status: http.StatusServiceUnavailable,
			state:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler("1.2.3", tt.checks).Ready)

			w, body := serve(t, r, http.MethodGet, "/health")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.state, body["status"])
			assert.Equal(t, "1.2.3", body["version"])

			checks := body["checks"].(map[string]any)
			assert.Len(t, checks, len(tt.checks))
			assert.Equal(t, "healthy", checks["postgres"])
		})
	}
}

func TestDocumentAction_InvalidID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	base := NewBaseHandler()
	h := NewSaleHandler(base, nil)
	r.GET("/sales/:id", h.Get)

	w, body := serve(t, r, http.MethodGet, "/sales/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, "id", body["details"].(map[string]any)["param"])
}

func TestPaymentList_RequiresTarget(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewPaymentHandler(NewBaseHandler(), nil)
	r.GET("/payments", h.List)

	w, body := serve(t, r, http.MethodGet, "/payments?target_kind=invoice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestAccountingPost_UnknownSource(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewAccountingHandler(NewBaseHandler(), nil)
	r.POST("/accounting/post/:source_type/:id", h.Post)

	w, body := serve(t, r, http.MethodPost, "/accounting/post/refund/7b0c6f1e-5a4e-4c59-9d0e-7b3f3f6f1a11")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "refund", body["details"].(map[string]any)["source_type"])
}

func TestBaseHandler_OK(t *testing.T) {
	r := gin.New()
	base := NewBaseHandler()
	r.GET("/x", func(c *gin.Context) { base.Created(c, "made", gin.H{"n": 1}) })

	w, body := serve(t, r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "made", body["message"])
	assert.EqualValues(t, 1, body["data"].(map[string]any)["n"])
}
