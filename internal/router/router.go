package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/OSU-CS493-Sp18/mongodb/internal/handler"
)

// RegisterRoutes registers the health check and the service-independent
// fallbacks: static assets from staticDir and the JSON 404 for anything
// no other route claims.  An empty staticDir disables static serving.
func RegisterRoutes(e *echo.Echo, staticDir string) {
	// Load balancers and monitoring hit /healthz; it never touches a store.
	e.GET("/healthz", handler.Health)

	if staticDir != "" {
		e.Static("/", staticDir)
	}
	e.RouteNotFound("/*", handler.NotFound)
}

// RegisterLodgings maps the /lodgings collection onto the handler.
func RegisterLodgings(e *echo.Echo, h *handler.LodgingHandler) {
	g := e.Group("/lodgings")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterUsers maps the /users collection onto the handler.  The owner
// listing reads the lodgings table, not the user document.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	g := e.Group("/users")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/lodgings", h.ListLodgings)
}
