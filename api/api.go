// Package api exposes the floor ledger over HTTP with gin. Every route
// requires a bearer token; the tenant and actor come from the token, never
// from the URL.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/auth"
	"github.com/gastroflow/ledger/user"
)

func init() {
	// Request bodies must name only known fields.
	binding.EnableDecoderDisallowUnknownFields = true
}

// Handler serves the floor API for one ledger.
type Handler struct {
	ledger *ledger.Ledger
	tokens *auth.Manager
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for internal errors.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New creates a Handler.
func New(l *ledger.Ledger, tokens *auth.Manager, opts ...Option) *Handler {
	h := &Handler{
		ledger: l,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DefaultCORS allows any origin to call the API with a bearer token.
func DefaultCORS() cors.Config {
	return cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
}

// Router returns a gin engine with recovery, CORS and every route mounted
// under /api/v1.
func (h *Handler) Router(corsConfig cors.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.New(corsConfig))
	h.Register(r.Group("/api/v1"))
	return r
}

// Register mounts the routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.Use(h.RequireAuth())

	staff := h.RequireRole(user.RoleWaiter, user.RoleManager)
	kitchen := h.RequireRole(user.RoleKitchen, user.RoleWaiter, user.RoleManager)
	managers := h.RequireRole(user.RoleManager)
	admins := h.RequireRole(user.RoleAdmin)

	g.GET("/tenant", h.getTenant)

	tables := g.Group("/tables")
	{
		tables.GET("", h.listTables)
		tables.GET("/:id", h.getTable)
		tables.POST("", managers, h.insertTable)
		tables.PATCH("/:id", staff, h.updateTable)
		tables.DELETE("/:id", managers, h.removeTable)
		tables.POST("/:id/open", staff, h.openTable)
		tables.GET("/:id/order", h.getActiveOrder)
	}

	orders := g.Group("/orders")
	{
		orders.GET("", h.listOrders)
		orders.POST("", staff, h.createOrder)
		orders.GET("/:id", h.getOrder)
		orders.POST("/:id/items", staff, h.addItems)
		orders.DELETE("/:id/items/:product", staff, h.removeItem)
		orders.PATCH("/:id/items/:product", kitchen, h.updateItemStatus)
		orders.POST("/:id/send", staff, h.sendToKitchen)
		orders.POST("/:id/deliver", staff, h.deliverReadyItems)
		orders.POST("/:id/close", staff, h.closeOrder)
	}

	g.GET("/kitchen", kitchen, h.kitchenQueue)

	products := g.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/:id", h.getProduct)
		products.POST("", managers, h.insertProduct)
		products.PATCH("/:id", managers, h.updateProduct)
		products.DELETE("/:id", managers, h.removeProduct)
		products.POST("/:id/stock", managers, h.adjustStock)
	}
	g.GET("/stock/alerts", h.stockAlerts)

	categories := g.Group("/categories")
	{
		categories.GET("", h.listCategories)
		categories.POST("", managers, h.insertCategory)
		categories.PATCH("/:id", managers, h.updateCategory)
		categories.DELETE("/:id", managers, h.removeCategory)
	}

	g.GET("/users", managers, h.listUsers)
	g.POST("/users", admins, h.insertUser)
	g.GET("/audit", managers, h.listAuditLogs)
}
