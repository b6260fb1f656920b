package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	orders := NewDomainGroup("orders", "/orders").GET("", respond("list"))
	items := NewDomainGroup("order-items", "/order-items").DELETE("/:item_id", respond("removed"))

	NewRouter(engine, WithAPIVersion("v2")).Register(orders, items).Setup()

	assert.Equal(t, "list", serve(engine, http.MethodGet, "/api/v2/orders").Body.String())
	assert.Equal(t, "removed", serve(engine, http.MethodDelete, "/api/v2/order-items/42").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/orders").Code)
}

func TestRouter_Use(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", respond("up"))

	NewRouter(engine).
		Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		}).
		Register(NewDomainGroup("orders", "/orders").GET("", respond("list"))).
		Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/orders").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("orders", "/orders").
		GET("/:id", respond("get")).
		POST("/:id/pay", respond("pay")).
		PUT("/:id", respond("put")).
		PATCH("/:id", respond("patch")).
		DELETE("/:id", respond("delete")).
		Handle(http.MethodOptions, "/:id", respond("options"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/orders/1", "get"},
		{http.MethodPost, "/api/v1/orders/1/pay", "pay"},
		{http.MethodPut, "/api/v1/orders/1", "put"},
		{http.MethodPatch, "/api/v1/orders/1", "patch"},
		{http.MethodDelete, "/api/v1/orders/1", "delete"},
		{http.MethodOptions, "/api/v1/orders/1", "options"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	production := NewDomainGroup("production", "/production").Use(func(c *gin.Context) {
		c.Header("X-Guard", "checked")
		c.Next()
	})
	production.Group("orders", "/orders").POST("/:id/advance", respond("advanced"))
	production.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodPost, "/api/v1/production/orders/7/advance")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "advanced", w.Body.String())
	assert.Equal(t, "checked", w.Header().Get("X-Guard"))
	assert.Equal(t, "production", production.Name())
	assert.Equal(t, "/production", production.Prefix())
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("orders", "/orders").
		POST("", respond("")).
		GET("/:id", respond(""))
	g.Group("items", "/:id/items").POST("", respond(""))

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodPost, Path: "/orders"},
		{Method: http.MethodGet, Path: "/orders/:id"},
		{Method: http.MethodPost, Path: "/orders/:id/items"},
	}, g.Routes())
}
