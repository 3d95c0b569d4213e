package postgres

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

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
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"not null;default:''"`
	Plan      string    `gorm:"size:32;not null"`
	Currency  string    `gorm:"size:8;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (tenantModel) TableName() string { return "floor_tenants" }

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
	ID        string    `gorm:"primaryKey;size:64"`
	TenantID  string    `gorm:"size:64;not null;index:idx_floor_tables_tenant_number,priority:1"`
	Number    string    `gorm:"size:32;not null;index:idx_floor_tables_tenant_number,priority:2"`
	Capacity  int       `gorm:"not null"`
	Zone      string    `gorm:"size:64;not null;default:''"`
	Status    string    `gorm:"size:16;not null"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (tableModel) TableName() string { return "floor_tables" }

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
		return nil, fmt.Errorf("ledger/postgres: table id: %w", err)
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

// orderModel keeps line items in a JSONB column. ItemStatuses holds the
// distinct item statuses wrapped in commas (",PENDING,READY,") so the
// kitchen filter is a LIKE match.
type orderModel struct {
	ID            string                         `gorm:"primaryKey;size:64"`
	TenantID      string                         `gorm:"size:64;not null;index:idx_floor_orders_tenant_created,priority:1;uniqueIndex:idx_floor_orders_open_table,priority:1,where:status = 'OPEN'"`
	TableID       string                         `gorm:"size:64;not null;uniqueIndex:idx_floor_orders_open_table,priority:2,where:status = 'OPEN'"`
	Status        string                         `gorm:"size:16;not null;index"`
	Items         datatypes.JSONSlice[itemModel] `gorm:"type:jsonb;not null"`
	ItemStatuses  string                         `gorm:"not null;default:''"`
	TotalAmount   int64                          `gorm:"not null"`
	Currency      string                         `gorm:"size:8;not null"`
	PaymentMethod string                         `gorm:"size:16;not null;default:''"`
	ClosedAt      *time.Time
	ClosedBy      string    `gorm:"size:64;not null;default:''"`
	CreatedAt     time.Time `gorm:"not null;index:idx_floor_orders_tenant_created,priority:2,sort:desc"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (orderModel) TableName() string { return "floor_orders" }

type itemModel struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Quantity  int64      `json:"quantity"`
	Price     int64      `json:"price"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	AddedAt   time.Time  `json:"added_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	m := &orderModel{
		ID:            o.ID.String(),
		TenantID:      o.TenantID,
		TableID:       o.TableID.String(),
		Status:        string(o.Status),
		Items:         make(datatypes.JSONSlice[itemModel], len(o.Items)),
		TotalAmount:   o.Total.Amount,
		Currency:      o.Total.Currency,
		PaymentMethod: string(o.PaymentMethod),
		ClosedAt:      o.ClosedAt,
		ClosedBy:      o.ClosedBy.String(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	var statuses strings.Builder
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
			statuses.WriteString("," + string(it.Status))
		}
	}
	if statuses.Len() > 0 {
		m.ItemStatuses = statuses.String() + ","
	}
	return m
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: order id: %w", err)
	}
	tableID, err := id.ParseTableID(m.TableID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: order table id: %w", err)
	}
	closedBy, err := parseOptional(m.ClosedBy)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: order closed_by: %w", err)
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
			return nil, fmt.Errorf("ledger/postgres: order item product id: %w", err)
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
	ID            string    `gorm:"primaryKey;size:64"`
	TenantID      string    `gorm:"size:64;not null;index:idx_floor_products_tenant_name,priority:1;uniqueIndex:idx_floor_products_tenant_sku,priority:1,where:sku_lower <> ''"`
	SKU           string    `gorm:"column:sku;size:64;not null;default:''"`
	SKULower      string    `gorm:"column:sku_lower;size:64;not null;default:'';uniqueIndex:idx_floor_products_tenant_sku,priority:2,where:sku_lower <> ''"`
	Name          string    `gorm:"not null"`
	NameLower     string    `gorm:"not null;index:idx_floor_products_tenant_name,priority:2"`
	Description   string    `gorm:"not null;default:''"`
	CategoryID    string    `gorm:"size:64;not null;default:'';index"`
	PriceAmount   int64     `gorm:"not null"`
	Currency      string    `gorm:"size:8;not null"`
	StockEnabled  bool      `gorm:"not null"`
	StockQuantity int64     `gorm:"not null"`
	StockMin      int64     `gorm:"not null"`
	IsActive      bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (productModel) TableName() string { return "floor_products" }

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ID:            p.ID.String(),
		TenantID:      p.TenantID,
		SKU:           p.SKU,
		SKULower:      strings.ToLower(p.SKU),
		Name:          p.Name,
		NameLower:     strings.ToLower(p.Name),
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
		return nil, fmt.Errorf("ledger/postgres: product id: %w", err)
	}
	categoryID, err := parseOptional(m.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: product category id: %w", err)
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
	ID        string    `gorm:"primaryKey;size:64"`
	TenantID  string    `gorm:"size:64;not null;index:idx_floor_categories_tenant_rank,priority:1"`
	Name      string    `gorm:"not null"`
	Rank      int       `gorm:"not null;index:idx_floor_categories_tenant_rank,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (categoryModel) TableName() string { return "floor_categories" }

func toCategoryModel(c *category.Category) *categoryModel {
	return &categoryModel{
		ID:        c.ID.String(),
		TenantID:  c.TenantID,
		Name:      c.Name,
		Rank:      c.Order,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCategoryModel(m *categoryModel) (*category.Category, error) {
	categoryID, err := id.ParseCategoryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: category id: %w", err)
	}
	return &category.Category{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       categoryID,
		TenantID: m.TenantID,
		Name:     m.Name,
		Order:    m.Rank,
	}, nil
}

// ==================== User models ====================

type userModel struct {
	ID          string                      `gorm:"primaryKey;size:64"`
	TenantID    string                      `gorm:"size:64;not null;uniqueIndex:idx_floor_users_tenant_email,priority:1"`
	Name        string                      `gorm:"not null"`
	Email       string                      `gorm:"not null;uniqueIndex:idx_floor_users_tenant_email,priority:2"`
	Role        string                      `gorm:"size:16;not null"`
	Permissions datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	IsActive    bool                        `gorm:"not null"`
	CreatedAt   time.Time                   `gorm:"not null"`
	UpdatedAt   time.Time                   `gorm:"not null"`
}

func (userModel) TableName() string { return "floor_users" }

func toUserModel(u *user.User) *userModel {
	perms := datatypes.JSONSlice[string]{}
	perms = append(perms, u.Permissions...)
	return &userModel{
		ID:          u.ID.String(),
		TenantID:    u.TenantID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Permissions: perms,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	userID, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: user id: %w", err)
	}
	perms := append([]string{}, m.Permissions...)
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
	ID          string    `gorm:"primaryKey;size:64"`
	TenantID    string    `gorm:"size:64;not null;index:idx_floor_audit_tenant_ts,priority:1;index:idx_floor_audit_tenant_entity,priority:1"`
	Action      string    `gorm:"size:32;not null"`
	EntityID    string    `gorm:"size:64;not null;index:idx_floor_audit_tenant_entity,priority:2"`
	BeforeStock int64     `gorm:"not null"`
	AfterStock  int64     `gorm:"not null"`
	Reason      string    `gorm:"not null;default:''"`
	ActorID     string    `gorm:"size:64;not null;default:''"`
	ReferenceID string    `gorm:"size:64;not null;default:''"`
	Timestamp   time.Time `gorm:"not null;index:idx_floor_audit_tenant_ts,priority:2,sort:desc"`
}

func (auditLogModel) TableName() string { return "floor_audit_logs" }

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
		return nil, fmt.Errorf("ledger/postgres: audit id: %w", err)
	}
	entityID, err := id.Parse(m.EntityID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: audit entity id: %w", err)
	}
	actorID, err := parseOptional(m.ActorID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: audit actor id: %w", err)
	}
	referenceID, err := parseOptional(m.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: audit reference id: %w", err)
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
