package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := middleware.DefaultProfilingConfig()

	assert.True(t, cfg.Enabled)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPaths, "/ready")
}

func TestProfilingMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	handlerCalled := false
	r.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{Enabled: false}))
	r.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerCalled)
}

func TestProfilingMiddleware_RunsHandlerForEveryPath(t *testing.T) {
	paths := []string{
		"/health",
		"/api/v1/requisitions",
		"/api/v1/purchase-orders/123/receive",
		"/api/v1/inventory/alerts/low-stock",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.Profiling())
			handlerCalled := false
			r.Any("/*any", func(c *gin.Context) {
				handlerCalled = true
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, handlerCalled)
		})
	}
}

func TestProfilingMiddleware_ContextPreserved(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, "kept"))
		c.Set(middleware.JWTTenantIDKey, "00000000-0000-0000-0000-000000000001")
		c.Next()
	})
	r.Use(middleware.Profiling())

	var got any
	r.GET("/api/v1/inventory/:id", func(c *gin.Context) {
		got = c.Request.Context().Value(ctxKey{})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kept", got)
}
