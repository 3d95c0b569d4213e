// Package mongo implements store.Store on MongoDB through Grove. Apply runs
// inside a multi-document transaction, so the server must be a replica set
// or a sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colTenants    = "floor_tenants"
	colTables     = "floor_tables"
	colOrders     = "floor_orders"
	colProducts   = "floor_products"
	colCategories = "floor_categories"
	colUsers      = "floor_users"
	colAuditLogs  = "floor_audit_logs"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all floor collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Tenant Store ====================

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if _, err := s.mdb.NewInsert(toTenantModel(t)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("ledger/mongo: tenant %s: %w", t.ID, ledger.ErrAlreadyExists)
		}
		return fmt.Errorf("ledger/mongo: create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	var m tenantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, &ledger.NotFoundError{Entity: "tenant", ID: tenantID}
		}
		return nil, fmt.Errorf("ledger/mongo: get tenant: %w", err)
	}
	return fromTenantModel(&m), nil
}

// ==================== Table Store ====================

func (s *Store) GetTable(ctx context.Context, tenantID string, tableID id.TableID) (*table.Table, error) {
	var m tableModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tableID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.NotFound("table", tableID)
		}
		return nil, fmt.Errorf("ledger/mongo: get table: %w", err)
	}
	return fromTableModel(&m)
}

func (s *Store) ListTables(ctx context.Context, tenantID string, opts table.ListOpts) ([]*table.Table, error) {
	var models []tableModel

	filter := bson.M{"tenant_id": tenantID}
	if !opts.IncludeInactive {
		filter["is_active"] = true
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	if err := s.mdb.NewFind(&models).Filter(filter).Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list tables: %w", err)
	}

	result := make([]*table.Table, 0, len(models))
	for i := range models {
		t, err := fromTableModel(&models[i])
		if err != nil {
			return nil, err
		}
		if opts.Match(t) {
			result = append(result, t)
		}
	}
	table.SortByNumber(result)
	return result, nil
}

// ==================== Order Store ====================

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": orderID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("ledger/mongo: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) GetOpenOrderForTable(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"tenant_id": tenantID,
			"table_id":  tableID.String(),
			"status":    string(order.StatusOpen),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, &ledger.NotFoundError{Entity: "open order for table", ID: tableID.String()}
		}
		return nil, fmt.Errorf("ledger/mongo: get open order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel

	filter := bson.M{"tenant_id": tenantID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.TableID.IsNil() {
		filter["table_id"] = opts.TableID.String()
	}
	if created := timeRange(opts.From, opts.To); created != nil {
		filter["created_at"] = created
	}
	if len(opts.ItemStatus) > 0 {
		statuses := make([]string, len(opts.ItemStatus))
		for i, st := range opts.ItemStatus {
			statuses[i] = string(st)
		}
		filter["item_statuses"] = bson.M{"$in": statuses}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list orders: %w", err)
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
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": productID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.NotFound("product", productID)
		}
		return nil, fmt.Errorf("ledger/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) GetProductBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	notFound := &ledger.NotFoundError{Entity: "product with sku", ID: sku}
	if sku == "" {
		return nil, notFound
	}

	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "sku_lower": lower(sku)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, notFound
		}
		return nil, fmt.Errorf("ledger/mongo: get product by sku: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, tenantID string, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel

	filter := bson.M{"tenant_id": tenantID}
	if !opts.CategoryID.IsNil() {
		filter["category_id"] = opts.CategoryID.String()
	}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		pattern := regexp.QuoteMeta(lower(q))
		filter["$or"] = bson.A{
			bson.M{"name_lower": bson.M{"$regex": pattern}},
			bson.M{"sku_lower": bson.M{"$regex": pattern}},
		}
	}

	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name_lower", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list products: %w", err)
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
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": categoryID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.NotFound("category", categoryID)
		}
		return nil, fmt.Errorf("ledger/mongo: get category: %w", err)
	}
	return fromCategoryModel(&m)
}

func (s *Store) ListCategories(ctx context.Context, tenantID string) ([]*category.Category, error) {
	var models []categoryModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID}).
		Sort(bson.D{{Key: "rank", Value: 1}, {Key: "name", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list categories: %w", err)
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

	filter := bson.M{"tenant_id": tenantID}
	if opts.Action != "" {
		filter["action"] = string(opts.Action)
	}
	if !opts.EntityID.IsNil() {
		filter["entity_id"] = opts.EntityID.String()
	}
	if ts := timeRange(opts.From, opts.To); ts != nil {
		filter["timestamp"] = ts
	}

	// Audit ids are time-ordered, so _id breaks timestamp ties in commit order.
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list audit logs: %w", err)
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
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.NotFound("user", userID)
		}
		return nil, fmt.Errorf("ledger/mongo: get user: %w", err)
	}
	return fromUserModel(&m)
}

func (s *Store) ListUsers(ctx context.Context, tenantID string, opts user.ListOpts) ([]*user.User, error) {
	var models []userModel

	filter := bson.M{"tenant_id": tenantID}
	if opts.Role != "" {
		filter["role"] = string(opts.Role)
	}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}

	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: list users: %w", err)
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

// Apply writes the batch inside one session transaction. Grove operations
// receive the session context, so they join the transaction.
func (s *Store) Apply(ctx context.Context, tenantID string, b *ledgerstore.Batch) error {
	if err := b.CheckTenant(tenantID); err != nil {
		return fmt.Errorf("ledger/mongo: apply: %w", err)
	}
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return err
	}

	client := s.mdb.Collection(colTenants).Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("ledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, s.write(ctx, tenantID, b)
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("ledger/mongo: apply: %w", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, tenantID string, b *ledgerstore.Batch) error {
	for _, t := range b.Tables {
		m := toTableModel(t)
		if err := s.upsert(ctx, m, m.ID); err != nil {
			return fmt.Errorf("table %s: %w", m.ID, err)
		}
	}
	for _, o := range b.Orders {
		m := toOrderModel(o)
		if err := s.upsert(ctx, m, m.ID); err != nil {
			return fmt.Errorf("order %s: %w", m.ID, err)
		}
	}
	for _, p := range b.Products {
		m := toProductModel(p)
		if err := s.upsert(ctx, m, m.ID); err != nil {
			return fmt.Errorf("product %s: %w", m.ID, err)
		}
	}
	for _, productID := range b.DeletedProducts {
		_, err := s.mdb.NewDelete((*productModel)(nil)).
			Filter(bson.M{"_id": productID.String(), "tenant_id": tenantID}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete product %s: %w", productID, err)
		}
	}
	for _, c := range b.Categories {
		m := toCategoryModel(c)
		if err := s.upsert(ctx, m, m.ID); err != nil {
			return fmt.Errorf("category %s: %w", m.ID, err)
		}
	}
	for _, categoryID := range b.DeletedCategories {
		_, err := s.mdb.NewDelete((*categoryModel)(nil)).
			Filter(bson.M{"_id": categoryID.String(), "tenant_id": tenantID}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete category %s: %w", categoryID, err)
		}
	}
	for _, u := range b.Users {
		m := toUserModel(u)
		if err := s.upsert(ctx, m, m.ID); err != nil {
			return fmt.Errorf("user %s: %w", m.ID, err)
		}
	}
	for _, l := range b.AuditLogs {
		if _, err := s.mdb.NewInsert(toAuditLogModel(l)).Exec(ctx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("ledger/mongo: audit log %s: %w", l.ID, ledger.ErrAlreadyExists)
			}
			return fmt.Errorf("audit log %s: %w", l.ID, err)
		}
	}
	return nil
}

// upsert replaces the document with id docID, inserting it when absent.
func (s *Store) upsert(ctx context.Context, model any, docID string) error {
	res, err := s.mdb.NewUpdate(model).
		Filter(bson.M{"_id": docID}).
		Exec(ctx)
	if err != nil {
		return err
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	_, err = s.mdb.NewInsert(model).Exec(ctx)
	return err
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func lower(s string) string { return strings.ToLower(s) }

// timeRange builds a [from, to) filter, or nil when both bounds are zero.
func timeRange(from, to time.Time) bson.M {
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lt"] = to
	}
	if len(r) == 0 {
		return nil
	}
	return r
}

// migrationIndexes returns the index definitions for all floor collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTables: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "number", Value: 1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "item_statuses", Value: 1}}},
			{
				// At most one OPEN order per table.
				Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "table_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(order.StatusOpen)}),
			},
		},
		colProducts: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "name_lower", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "category_id", Value: 1}}},
			{
				Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "sku_lower", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"sku_lower": bson.M{"$gt": ""}}),
			},
		},
		colCategories: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "rank", Value: 1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colAuditLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
}
