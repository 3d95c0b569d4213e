package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/types"
	"github.com/gastroflow/ledger/user"
)

// ==================== Tenant models ====================

type tenantModel struct {
	grove.BaseModel `grove:"table:floor_tenants"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Name      string    `grove:"name"       bson:"name"`
	Plan      string    `grove:"plan"       bson:"plan"`
	Currency  string    `grove:"currency"   bson:"currency"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toTenantModel(t *tenant.Tenant) *tenantModel {
	return &tenantModel{
		ID:        t.ID,
		Name:      t.Name,
		Plan:      string(t.Plan),
		Currency:  t.Currency,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromTenantModel(m *tenantModel) *tenant.Tenant {
	return &tenant.Tenant{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       m.ID,
		Name:     m.Name,
		Plan:     tenant.PlanTier(m.Plan),
		Currency: m.Currency,
	}
}

// ==================== Table models ====================

type tableModel struct {
	grove.BaseModel `grove:"table:floor_tables"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	TenantID  string    `grove:"tenant_id"  bson:"tenant_id"`
	Number    string    `grove:"number"     bson:"number"`
	Capacity  int       `grove:"capacity"   bson:"capacity"`
	Zone      string    `grove:"zone"       bson:"zone"`
	Status    string    `grove:"status"     bson:"status"`
	IsActive  bool      `grove:"is_active"  bson:"is_active"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toTableModel(t *table.Table) *tableModel {
	return &tableModel{
		ID:        t.ID.String(),
		TenantID:  t.TenantID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Zone:      t.Zone,
		Status:    string(t.Status),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromTableModel(m *tableModel) (*table.Table, error) {
	tableID, err := id.ParseTableID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: table id: %w", err)
	}
	return &table.Table{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       tableID,
		TenantID: m.TenantID,
		Number:   m.Number,
		Capacity: m.Capacity,
		Zone:     m.Zone,
		Status:   table.Status(m.Status),
		IsActive: m.IsActive,
	}, nil
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:floor_orders"`

	ID            string      `grove:"id,pk"          bson:"_id"`
	TenantID      string      `grove:"tenant_id"      bson:"tenant_id"`
	TableID       string      `grove:"table_id"       bson:"table_id"`
	Status        string      `grove:"status"         bson:"status"`
	Items         []itemModel `grove:"items"          bson:"items"`
	ItemStatuses  []string    `grove:"item_statuses"  bson:"item_statuses"`
	TotalAmount   int64       `grove:"total_amount"   bson:"total_amount"`
	Currency      string      `grove:"currency"       bson:"currency"`
	PaymentMethod string      `grove:"payment_method" bson:"payment_method,omitempty"`
	ClosedAt      *time.Time  `grove:"closed_at"      bson:"closed_at,omitempty"`
	ClosedBy      string      `grove:"closed_by"      bson:"closed_by,omitempty"`
	CreatedAt     time.Time   `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time   `grove:"updated_at"     bson:"updated_at"`
}

type itemModel struct {
	ProductID string     `bson:"product_id"`
	Name      string     `bson:"name"`
	Quantity  int64      `bson:"quantity"`
	Price     int64      `bson:"price"`
	Status    string     `bson:"status"`
	SentAt    *time.Time `bson:"sent_at,omitempty"`
	AddedAt   time.Time  `bson:"added_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	m := &orderModel{
		ID:            o.ID.String(),
		TenantID:      o.TenantID,
		TableID:       o.TableID.String(),
		Status:        string(o.Status),
		Items:         make([]itemModel, len(o.Items)),
		ItemStatuses:  []string{},
		TotalAmount:   o.Total.Amount,
		Currency:      o.Total.Currency,
		PaymentMethod: string(o.PaymentMethod),
		ClosedAt:      o.ClosedAt,
		ClosedBy:      o.ClosedBy.String(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	seen := map[order.ItemStatus]bool{}
	for i, it := range o.Items {
		m.Items[i] = itemModel{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.Amount,
			Status:    string(it.Status),
			SentAt:    it.SentAt,
			AddedAt:   it.AddedAt,
		}
		if !seen[it.Status] {
			seen[it.Status] = true
			m.ItemStatuses = append(m.ItemStatuses, string(it.Status))
		}
	}
	return m
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: order id: %w", err)
	}
	tableID, err := id.ParseTableID(m.TableID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: order table id: %w", err)
	}
	closedBy, err := parseOptional(m.ClosedBy)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: order closed_by: %w", err)
	}

	o := &order.Order{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            orderID,
		TenantID:      m.TenantID,
		TableID:       tableID,
		Status:        order.Status(m.Status),
		Items:         make([]order.Item, len(m.Items)),
		Total:         types.New(m.TotalAmount, m.Currency),
		PaymentMethod: order.PaymentMethod(m.PaymentMethod),
		ClosedAt:      m.ClosedAt,
		ClosedBy:      closedBy,
	}
	for i, it := range m.Items {
		productID, err := id.ParseProductID(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("ledger/mongo: order item product id: %w", err)
		}
		o.Items[i] = order.Item{
			ProductID: productID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     types.New(it.Price, m.Currency),
			Status:    order.ItemStatus(it.Status),
			SentAt:    it.SentAt,
			AddedAt:   it.AddedAt,
		}
	}
	return o, nil
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:floor_products"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	TenantID      string    `grove:"tenant_id"      bson:"tenant_id"`
	SKU           string    `grove:"sku"            bson:"sku,omitempty"`
	SKULower      string    `grove:"sku_lower"      bson:"sku_lower,omitempty"`
	Name          string    `grove:"name"           bson:"name"`
	NameLower     string    `grove:"name_lower"     bson:"name_lower"`
	Description   string    `grove:"description"    bson:"description"`
	CategoryID    string    `grove:"category_id"    bson:"category_id,omitempty"`
	PriceAmount   int64     `grove:"price_amount"   bson:"price_amount"`
	Currency      string    `grove:"currency"       bson:"currency"`
	StockEnabled  bool      `grove:"stock_enabled"  bson:"stock_enabled"`
	StockQuantity int64     `grove:"stock_quantity" bson:"stock_quantity"`
	StockMin      int64     `grove:"stock_min"      bson:"stock_min"`
	IsActive      bool      `grove:"is_active"      bson:"is_active"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ID:            p.ID.String(),
		TenantID:      p.TenantID,
		SKU:           p.SKU,
		SKULower:      lower(p.SKU),
		Name:          p.Name,
		NameLower:     lower(p.Name),
		Description:   p.Description,
		CategoryID:    p.CategoryID.String(),
		PriceAmount:   p.Price.Amount,
		Currency:      p.Price.Currency,
		StockEnabled:  p.StockEnabled,
		StockQuantity: p.StockQuantity,
		StockMin:      p.StockMin,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*product.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: product id: %w", err)
	}
	categoryID, err := parseOptional(m.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: product category id: %w", err)
	}
	return &product.Product{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            productID,
		TenantID:      m.TenantID,
		SKU:           m.SKU,
		Name:          m.Name,
		Description:   m.Description,
		CategoryID:    categoryID,
		Price:         types.New(m.PriceAmount, m.Currency),
		StockEnabled:  m.StockEnabled,
		StockQuantity: m.StockQuantity,
		StockMin:      m.StockMin,
		IsActive:      m.IsActive,
	}, nil
}

// ==================== Category models ====================

type categoryModel struct {
	grove.BaseModel `grove:"table:floor_categories"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	TenantID  string    `grove:"tenant_id"  bson:"tenant_id"`
	Name      string    `grove:"name"       bson:"name"`
	Order     int       `grove:"rank"       bson:"rank"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toCategoryModel(c *category.Category) *categoryModel {
	return &categoryModel{
		ID:        c.ID.String(),
		TenantID:  c.TenantID,
		Name:      c.Name,
		Order:     c.Order,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCategoryModel(m *categoryModel) (*category.Category, error) {
	categoryID, err := id.ParseCategoryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: category id: %w", err)
	}
	return &category.Category{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       categoryID,
		TenantID: m.TenantID,
		Name:     m.Name,
		Order:    m.Order,
	}, nil
}

// ==================== User models ====================

type userModel struct {
	grove.BaseModel `grove:"table:floor_users"`

	ID          string    `grove:"id,pk"       bson:"_id"`
	TenantID    string    `grove:"tenant_id"   bson:"tenant_id"`
	Name        string    `grove:"name"        bson:"name"`
	Email       string    `grove:"email"       bson:"email"`
	Role        string    `grove:"role"        bson:"role"`
	Permissions []string  `grove:"permissions" bson:"permissions"`
	IsActive    bool      `grove:"is_active"   bson:"is_active"`
	CreatedAt   time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:          u.ID.String(),
		TenantID:    u.TenantID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Permissions: u.Permissions,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	userID, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: user id: %w", err)
	}
	perms := m.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &user.User{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          userID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Email:       m.Email,
		Role:        user.Role(m.Role),
		Permissions: perms,
		IsActive:    m.IsActive,
	}, nil
}

// ==================== Audit models ====================

type auditLogModel struct {
	grove.BaseModel `grove:"table:floor_audit_logs"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	TenantID    string    `grove:"tenant_id"    bson:"tenant_id"`
	Action      string    `grove:"action"       bson:"action"`
	EntityID    string    `grove:"entity_id"    bson:"entity_id"`
	BeforeStock int64     `grove:"before_stock" bson:"before_stock"`
	AfterStock  int64     `grove:"after_stock"  bson:"after_stock"`
	Reason      string    `grove:"reason"       bson:"reason"`
	ActorID     string    `grove:"actor_id"     bson:"actor_id,omitempty"`
	ReferenceID string    `grove:"reference_id" bson:"reference_id,omitempty"`
	Timestamp   time.Time `grove:"timestamp"    bson:"timestamp"`
}

func toAuditLogModel(l *audit.Log) *auditLogModel {
	return &auditLogModel{
		ID:          l.ID.String(),
		TenantID:    l.TenantID,
		Action:      string(l.Action),
		EntityID:    l.EntityID.String(),
		BeforeStock: l.Before.Stock,
		AfterStock:  l.After.Stock,
		Reason:      l.Reason,
		ActorID:     l.ActorID.String(),
		ReferenceID: l.ReferenceID.String(),
		Timestamp:   l.Timestamp,
	}
}

func fromAuditLogModel(m *auditLogModel) (*audit.Log, error) {
	auditID, err := id.ParseAuditID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: audit id: %w", err)
	}
	entityID, err := id.Parse(m.EntityID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: audit entity id: %w", err)
	}
	actorID, err := parseOptional(m.ActorID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: audit actor id: %w", err)
	}
	referenceID, err := parseOptional(m.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: audit reference id: %w", err)
	}
	return &audit.Log{
		ID:          auditID,
		TenantID:    m.TenantID,
		Action:      audit.Action(m.Action),
		EntityID:    entityID,
		Before:      audit.Snapshot{Stock: m.BeforeStock},
		After:       audit.Snapshot{Stock: m.AfterStock},
		Reason:      m.Reason,
		ActorID:     actorID,
		ReferenceID: referenceID,
		Timestamp:   m.Timestamp,
	}, nil
}

// parseOptional parses an id column that may be empty.
func parseOptional(s string) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.Parse(s)
}
