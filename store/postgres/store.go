// Package postgres implements store.Store on PostgreSQL through GORM. Line
// items and permissions live in JSONB columns; Apply runs in one database
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	ledgerstore "github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via GORM.
type Store struct {
	db *gorm.DB
}

// New creates a new PostgreSQL store. The connection should be opened with
// TranslateError enabled so duplicate keys surface as gorm.ErrDuplicatedKey;
// Open does that.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL with pool settings suited to a single
// service instance.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// DB returns the underlying gorm database for direct access.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates or updates the floor tables and their indexes.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&tenantModel{},
		&tableModel{},
		&orderModel{},
		&productModel{},
		&categoryModel{},
		&userModel{},
		&auditLogModel{},
	)
	if err != nil {
		return fmt.Errorf("ledger/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Tenant Store ====================

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if err := s.db.WithContext(ctx).Create(toTenantModel(t)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("ledger/postgres: tenant %s: %w", t.ID, ledger.ErrAlreadyExists)
		}
		return fmt.Errorf("ledger/postgres: create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return getTenant(s.db.WithContext(ctx), tenantID)
}

func getTenant(db *gorm.DB, tenantID string) (*tenant.Tenant, error) {
	var m tenantModel
	if err := db.Where("id = ?", tenantID).First(&m).Error; err != nil {
		if isNoRows(err) {
			return nil, &ledger.NotFoundError{Entity: "tenant", ID: tenantID}
		}
		return nil, fmt.Errorf("ledger/postgres: get tenant: %w", err)
	}
	return fromTenantModel(&m), nil
}

// ==================== Table Store ====================

func (s *Store) GetTable(ctx context.Context, tenantID string, tableID id.TableID) (*table.Table, error) {
	var m tableModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", tableID.String(), tenantID).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.NotFound("table", tableID)
		}
		return nil, fmt.Errorf("ledger/postgres: get table: %w", err)
	}
	return fromTableModel(&m)
}

func (s *Store) ListTables(ctx context.Context, tenantID string, opts table.ListOpts) ([]*table.Table, error) {
	var models []tableModel

	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !opts.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Zone != "" {
		q = q.Where("LOWER(zone) = ?", strings.ToLower(opts.Zone))
	}

	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list tables: %w", err)
	}

	result := make([]*table.Table, len(models))
	for i := range models {
		t, err := fromTableModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	table.SortByNumber(result)
	return result, nil
}

// ==================== Order Store ====================

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	var m orderModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", orderID.String(), tenantID).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("ledger/postgres: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) GetOpenOrderForTable(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	var m orderModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND table_id = ? AND status = ?", tenantID, tableID.String(), string(order.StatusOpen)).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, &ledger.NotFoundError{Entity: "open order for table", ID: tableID.String()}
		}
		return nil, fmt.Errorf("ledger/postgres: get open order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel

	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.TableID.IsNil() {
		q = q.Where("table_id = ?", opts.TableID.String())
	}
	if !opts.From.IsZero() {
		q = q.Where("created_at >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("created_at < ?", opts.To)
	}
	if len(opts.ItemStatus) > 0 {
		conds := make([]string, len(opts.ItemStatus))
		args := make([]any, len(opts.ItemStatus))
		for i, st := range opts.ItemStatus {
			conds[i] = "item_statuses LIKE ?"
			args[i] = "%," + string(st) + ",%"
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	q = q.Order("created_at DESC").Order("id DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list orders: %w", err)
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// ==================== Product Store ====================

func (s *Store) GetProduct(ctx context.Context, tenantID string, productID id.ProductID) (*product.Product, error) {
	var m productModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID.String(), tenantID).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.NotFound("product", productID)
		}
		return nil, fmt.Errorf("ledger/postgres: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) GetProductBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	notFound := &ledger.NotFoundError{Entity: "product with sku", ID: sku}
	if sku == "" {
		return nil, notFound
	}

	var m productModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND sku_lower = ?", tenantID, strings.ToLower(sku)).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, notFound
		}
		return nil, fmt.Errorf("ledger/postgres: get product by sku: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, tenantID string, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel

	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !opts.CategoryID.IsNil() {
		q = q.Where("category_id = ?", opts.CategoryID.String())
	}
	if opts.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where("(name_lower LIKE ? OR sku_lower LIKE ?)", pattern, pattern)
	}

	if err := q.Order("name_lower ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list products: %w", err)
	}

	// Stock state is derived, so it is filtered here.
	result := make([]*product.Product, 0, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		if opts.Match(p) {
			result = append(result, p)
		}
	}
	return result, nil
}

// ==================== Category Store ====================

func (s *Store) GetCategory(ctx context.Context, tenantID string, categoryID id.CategoryID) (*category.Category, error) {
	var m categoryModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", categoryID.String(), tenantID).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.NotFound("category", categoryID)
		}
		return nil, fmt.Errorf("ledger/postgres: get category: %w", err)
	}
	return fromCategoryModel(&m)
}

func (s *Store) ListCategories(ctx context.Context, tenantID string) ([]*category.Category, error) {
	var models []categoryModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("rank ASC").Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: list categories: %w", err)
	}

	result := make([]*category.Category, len(models))
	for i := range models {
		c, err := fromCategoryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Audit Store ====================

func (s *Store) ListAuditLogs(ctx context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Log, error) {
	var models []auditLogModel

	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if opts.Action != "" {
		q = q.Where("action = ?", string(opts.Action))
	}
	if !opts.EntityID.IsNil() {
		q = q.Where("entity_id = ?", opts.EntityID.String())
	}
	if !opts.From.IsZero() {
		q = q.Where("timestamp >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("timestamp < ?", opts.To)
	}

	// Audit ids are time-ordered, so id breaks timestamp ties in commit order.
	q = q.Order("timestamp DESC").Order("id DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list audit logs: %w", err)
	}

	result := make([]*audit.Log, len(models))
	for i := range models {
		l, err := fromAuditLogModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

// ==================== User Store ====================

func (s *Store) GetUser(ctx context.Context, tenantID string, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", userID.String(), tenantID).
		First(&m).Error
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.NotFound("user", userID)
		}
		return nil, fmt.Errorf("ledger/postgres: get user: %w", err)
	}
	return fromUserModel(&m)
}

func (s *Store) ListUsers(ctx context.Context, tenantID string, opts user.ListOpts) ([]*user.User, error) {
	var models []userModel

	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if opts.Role != "" {
		q = q.Where("role = ?", string(opts.Role))
	}
	if opts.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	if err := q.Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list users: %w", err)
	}

	result := make([]*user.User, len(models))
	for i := range models {
		u, err := fromUserModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = u
	}
	return result, nil
}

// ==================== Apply ====================

// Apply writes the batch in one transaction. Entity rows are upserted on the
// primary key; audit rows are plain inserts, so a repeated audit id fails
// the whole batch.
func (s *Store) Apply(ctx context.Context, tenantID string, b *ledgerstore.Batch) error {
	if err := b.CheckTenant(tenantID); err != nil {
		return fmt.Errorf("ledger/postgres: apply: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getTenant(tx, tenantID); err != nil {
			return err
		}
		return write(tx, tenantID, b)
	})
	if err != nil {
		var nf *ledger.NotFoundError
		if errors.As(err, &nf) || errors.Is(err, ledger.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("ledger/postgres: apply: %w", err)
	}
	return nil
}

func write(tx *gorm.DB, tenantID string, b *ledgerstore.Batch) error {
	upsert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Session(&gorm.Session{})

	for _, t := range b.Tables {
		if err := upsert.Create(toTableModel(t)).Error; err != nil {
			return fmt.Errorf("table %s: %w", t.ID, err)
		}
	}
	for _, o := range b.Orders {
		if err := upsert.Create(toOrderModel(o)).Error; err != nil {
			return fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	for _, p := range b.Products {
		if err := upsert.Create(toProductModel(p)).Error; err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	for _, productID := range b.DeletedProducts {
		err := tx.Where("id = ? AND tenant_id = ?", productID.String(), tenantID).
			Delete(&productModel{}).Error
		if err != nil {
			return fmt.Errorf("delete product %s: %w", productID, err)
		}
	}
	for _, c := range b.Categories {
		if err := upsert.Create(toCategoryModel(c)).Error; err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
	}
	for _, categoryID := range b.DeletedCategories {
		err := tx.Where("id = ? AND tenant_id = ?", categoryID.String(), tenantID).
			Delete(&categoryModel{}).Error
		if err != nil {
			return fmt.Errorf("delete category %s: %w", categoryID, err)
		}
	}
	for _, u := range b.Users {
		if err := upsert.Create(toUserModel(u)).Error; err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
	}
	for _, l := range b.AuditLogs {
		if err := tx.Create(toAuditLogModel(l)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("ledger/postgres: audit log %s: %w", l.ID, ledger.ErrAlreadyExists)
			}
			return fmt.Errorf("audit log %s: %w", l.ID, err)
		}
	}
	return nil
}

// ==================== Helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards in s.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
