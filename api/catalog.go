package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/user"
)

type adjustStockRequest struct {
	Delta  int64  `json:"delta"  binding:"required"`
	Reason string `json:"reason" binding:"required,max=120"`
}

type adjustStockResponse struct {
	Product *product.Product `json:"product"`
	Audit   *audit.Log       `json:"audit"`
}

func (h *Handler) getTenant(c *gin.Context) {
	t, err := h.ledger.GetTenant(c.Request.Context(), principal(c).TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// ──────────────────────────────────────────────────
// Products and stock
// ──────────────────────────────────────────────────

func (h *Handler) listProducts(c *gin.Context) {
	categoryID, err := queryID(c, "category_id", id.ParseCategoryID)
	if err != nil {
		h.fail(c, err)
		return
	}
	opts := product.ListOpts{
		CategoryID: categoryID,
		Search:     c.Query("search"),
		ActiveOnly: queryBool(c, "active_only"),
	}
	for _, st := range c.QueryArray("stock_state") {
		opts.StockState = append(opts.StockState, product.StockState(st))
	}

	products, err := h.ledger.ListProducts(c.Request.Context(), principal(c).TenantID, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	productID, found := h.pathID(c, "id", "product", id.ParseProductID)
	if !found {
		return
	}
	p, err := h.ledger.GetProduct(c.Request.Context(), principal(c).TenantID, productID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *Handler) insertProduct(c *gin.Context) {
	var req product.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.ledger.InsertProduct(c.Request.Context(), principal(c).TenantID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	productID, found := h.pathID(c, "id", "product", id.ParseProductID)
	if !found {
		return
	}
	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.ledger.UpdateProduct(c.Request.Context(), principal(c).TenantID, productID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *Handler) removeProduct(c *gin.Context) {
	productID, found := h.pathID(c, "id", "product", id.ParseProductID)
	if !found {
		return
	}
	if err := h.ledger.RemoveProduct(c.Request.Context(), principal(c).TenantID, productID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adjustStock(c *gin.Context) {
	productID, found := h.pathID(c, "id", "product", id.ParseProductID)
	if !found {
		return
	}
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := principal(c)
	prod, entry, err := h.ledger.AdjustStock(c.Request.Context(), p.TenantID, productID, p.UserID, req.Delta, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, adjustStockResponse{Product: prod, Audit: entry})
}

func (h *Handler) stockAlerts(c *gin.Context) {
	products, err := h.ledger.StockAlerts(c.Request.Context(), principal(c).TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, products)
}

// ──────────────────────────────────────────────────
// Categories
// ──────────────────────────────────────────────────

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.ledger.ListCategories(c.Request.Context(), principal(c).TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, categories)
}

func (h *Handler) insertCategory(c *gin.Context) {
	var req category.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.ledger.InsertCategory(c.Request.Context(), principal(c).TenantID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

func (h *Handler) updateCategory(c *gin.Context) {
	categoryID, found := h.pathID(c, "id", "category", id.ParseCategoryID)
	if !found {
		return
	}
	var req category.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.ledger.UpdateCategory(c.Request.Context(), principal(c).TenantID, categoryID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, cat)
}

func (h *Handler) removeCategory(c *gin.Context) {
	categoryID, found := h.pathID(c, "id", "category", id.ParseCategoryID)
	if !found {
		return
	}
	if err := h.ledger.RemoveCategory(c.Request.Context(), principal(c).TenantID, categoryID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Staff and audit
// ──────────────────────────────────────────────────

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.ledger.ListUsers(c.Request.Context(), principal(c).TenantID, user.ListOpts{
		Role:       user.Role(c.Query("role")),
		ActiveOnly: queryBool(c, "active_only"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

func (h *Handler) insertUser(c *gin.Context) {
	var req user.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.ledger.InsertUser(c.Request.Context(), principal(c).TenantID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

func (h *Handler) listAuditLogs(c *gin.Context) {
	entityID, err := queryID(c, "entity_id", id.Parse)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	logs, err := h.ledger.ListAuditLogs(c.Request.Context(), principal(c).TenantID, audit.ListOpts{
		Action:   audit.Action(c.Query("action")),
		EntityID: entityID,
		Limit:    limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, logs)
}
