package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	var calls []string

	NewRouter(engine, WithAPIVersion("v2")).
		Use(func(c *gin.Context) {
			calls = append(calls, "api")
			c.Next()
		}).
		Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})).
		Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []string{"api"}, calls, "API middleware does not run outside the versioned group")
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("inventory", "/inventory")
		assert.Equal(t, "inventory", g.Name())
		assert.Equal(t, "/inventory", g.Prefix())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		respond := func(body string) gin.HandlerFunc {
			return func(c *gin.Context) { c.String(http.StatusOK, body) }
		}
		NewDomainGroup("items", "/items").
			GET("", respond("list")).
			POST("", respond("create")).
			PUT("/:id", respond("update")).
			RegisterRoutes(engine.Group("/api/v1"))

		for method, want := range map[string]string{
			http.MethodGet:  "list",
			http.MethodPost: "create",
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/items", nil))
			assert.Equal(t, want, w.Body.String(), method)
		}

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/items/42", nil))
		assert.Equal(t, "update", w.Body.String())
	})

	t.Run("group middleware", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("guarded", "/guarded").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) }).
			RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestProcurementRoutes_Groups(t *testing.T) {
	routes := ProcurementRoutes(Handlers{})

	prefixes := make([]string, 0, len(routes))
	for _, r := range routes {
		g, ok := r.(*DomainGroup)
		if assert.True(t, ok) {
			prefixes = append(prefixes, g.Prefix())
			for _, route := range g.routes {
				assert.False(t, strings.HasSuffix(route.path, "/"), "%s %s%s", route.method, g.Prefix(), route.path)
			}
		}
	}
	assert.Equal(t, []string{"/approval-workflows", "/requisitions", "/purchase-orders", "/inventory", "/system"}, prefixes)
}
