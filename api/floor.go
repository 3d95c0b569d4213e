package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/table"
)

type createOrderRequest struct {
	TableID id.TableID `json:"table_id"`
}

type addItemsRequest struct {
	Items []order.ItemInput `json:"items" binding:"required,min=1"`
}

type itemStatusRequest struct {
	Status order.ItemStatus `json:"status" binding:"required"`
}

type closeOrderRequest struct {
	PaymentMethod order.PaymentMethod `json:"payment_method" binding:"required"`
}

// pathID parses the :name route parameter. A malformed id cannot exist, so
// it is reported as not found.
func (h *Handler) pathID(c *gin.Context, name, entity string, parse func(string) (id.ID, error)) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := parse(raw)
	if err != nil {
		h.fail(c, &ledger.NotFoundError{Entity: entity, ID: raw})
		return id.Nil, false
	}
	return parsed, true
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ledger.ValidationError{Field: key, Message: "must be a non-negative integer"}
	}
	return n, nil
}

// queryID parses an optional id filter; empty means no filter.
func queryID(c *gin.Context, key string, parse func(string) (id.ID, error)) (id.ID, error) {
	raw := c.Query(key)
	if raw == "" {
		return id.Nil, nil
	}
	parsed, err := parse(raw)
	if err != nil {
		return id.Nil, &ledger.ValidationError{Field: key, Message: "malformed id", Err: err}
	}
	return parsed, nil
}

// ──────────────────────────────────────────────────
// Tables
// ──────────────────────────────────────────────────

func (h *Handler) listTables(c *gin.Context) {
	tables, err := h.ledger.ListTables(c.Request.Context(), principal(c).TenantID, table.ListOpts{
		Status:          table.Status(c.Query("status")),
		Zone:            c.Query("zone"),
		IncludeInactive: queryBool(c, "include_inactive"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, tables)
}

func (h *Handler) getTable(c *gin.Context) {
	tableID, found := h.pathID(c, "id", "table", id.ParseTableID)
	if !found {
		return
	}
	t, err := h.ledger.GetTable(c.Request.Context(), principal(c).TenantID, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

func (h *Handler) insertTable(c *gin.Context) {
	var req table.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.ledger.InsertTable(c.Request.Context(), principal(c).TenantID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

func (h *Handler) updateTable(c *gin.Context) {
	tableID, found := h.pathID(c, "id", "table", id.ParseTableID)
	if !found {
		return
	}
	var req table.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.ledger.UpdateTable(c.Request.Context(), principal(c).TenantID, tableID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

func (h *Handler) removeTable(c *gin.Context) {
	tableID, found := h.pathID(c, "id", "table", id.ParseTableID)
	if !found {
		return
	}
	if err := h.ledger.RemoveTable(c.Request.Context(), principal(c).TenantID, tableID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) openTable(c *gin.Context) {
	tableID, found := h.pathID(c, "id", "table", id.ParseTableID)
	if !found {
		return
	}
	o, err := h.ledger.OpenTable(c.Request.Context(), principal(c).TenantID, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) getActiveOrder(c *gin.Context) {
	tableID, found := h.pathID(c, "id", "table", id.ParseTableID)
	if !found {
		return
	}
	o, err := h.ledger.GetActiveOrderForTable(c.Request.Context(), principal(c).TenantID, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

func (h *Handler) listOrders(c *gin.Context) {
	opts := order.ListOpts{Status: order.Status(c.Query("status"))}
	var err error
	if opts.TableID, err = queryID(c, "table_id", id.ParseTableID); err != nil {
		h.fail(c, err)
		return
	}
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		h.fail(c, err)
		return
	}
	if opts.Offset, err = queryInt(c, "offset"); err != nil {
		h.fail(c, err)
		return
	}
	for _, st := range c.QueryArray("item_status") {
		opts.ItemStatus = append(opts.ItemStatus, order.ItemStatus(st))
	}

	orders, err := h.ledger.ListOrders(c.Request.Context(), principal(c).TenantID, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	o, err := h.ledger.GetOrder(c.Request.Context(), principal(c).TenantID, orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.ledger.CreateOrder(c.Request.Context(), principal(c).TenantID, req.TableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) addItems(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	var req addItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.ledger.AddItems(c.Request.Context(), principal(c).TenantID, orderID, req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) removeItem(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	productID, found := h.pathID(c, "product", "product", id.ParseProductID)
	if !found {
		return
	}
	o, err := h.ledger.RemoveItem(c.Request.Context(), principal(c).TenantID, orderID, productID, queryBool(c, "force"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) updateItemStatus(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	productID, found := h.pathID(c, "product", "product", id.ParseProductID)
	if !found {
		return
	}
	var req itemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.ledger.UpdateItemStatus(c.Request.Context(), principal(c).TenantID, orderID, productID, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) sendToKitchen(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	o, err := h.ledger.SendToKitchen(c.Request.Context(), principal(c).TenantID, orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) deliverReadyItems(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	o, err := h.ledger.DeliverReadyItems(c.Request.Context(), principal(c).TenantID, orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) closeOrder(c *gin.Context) {
	orderID, found := h.pathID(c, "id", "order", id.ParseOrderID)
	if !found {
		return
	}
	var req closeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := principal(c)
	o, err := h.ledger.CloseOrder(c.Request.Context(), p.TenantID, orderID, p.UserID, req.PaymentMethod)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

func (h *Handler) kitchenQueue(c *gin.Context) {
	orders, err := h.ledger.KitchenQueue(c.Request.Context(), principal(c).TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}
