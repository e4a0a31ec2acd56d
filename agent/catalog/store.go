// Package catalog is the product/inventory/order persistence boundary.
// The Bun-backed store talks to Postgres; MemoryStore backs the console
// channel and tests.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var ErrProductNotFound = errors.New("product not found")

// Store is the data-store contract consumed by the capabilities.
type Store interface {
	Products(ctx context.Context, limit int) ([]Product, error)
	ProductByID(ctx context.Context, productID string) (*Product, error)
	SearchProducts(ctx context.Context, query, category string) ([]Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	CheckStock(ctx context.Context, productID string) (StockInfo, error)
	AdjustInventory(ctx context.Context, productID string, delta int) error
	CreateOrder(ctx context.Context, order *Order) (string, error)
	Stats(ctx context.Context) (Stats, error)
}

type Stats struct {
	TotalProducts int `json:"total_products"`
	TotalOrders   int `json:"total_orders"`
}

type Config struct {
	DSN               string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout           time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" split_words:"true" default:"5"`
}

// BunStore is the Postgres-backed catalog store.
type BunStore struct {
	db                *bun.DB
	lowStockThreshold int
}

func NewBunStore(cfg Config) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	return &BunStore{db: db, lowStockThreshold: threshold}, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) Products(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	var products []Product
	if err := s.db.NewSelect().Model(&products).Order("name ASC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (s *BunStore) ProductByID(ctx context.Context, productID string) (*Product, error) {
	product := new(Product)
	err := s.db.NewSelect().Model(product).Where("p.id = ?", productID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product %s: %w", productID, err)
	}
	return product, nil
}

func (s *BunStore) SearchProducts(ctx context.Context, query, category string) ([]Product, error) {
	var products []Product
	q := s.db.NewSelect().Model(&products)
	if strings.TrimSpace(query) != "" {
		q = q.Where("p.name ILIKE ?", "%"+strings.TrimSpace(query)+"%")
	}
	if strings.TrimSpace(category) != "" {
		q = q.Where("p.category = ?", strings.TrimSpace(category))
	}
	if err := q.Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (s *BunStore) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	var products []Product
	err := s.db.NewSelect().Model(&products).Where("p.category = ?", category).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select category %s: %w", category, err)
	}
	return products, nil
}

func (s *BunStore) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("DISTINCT category").
		Where("category IS NOT NULL AND category != ''").
		OrderExpr("category ASC").
		Scan(ctx, &categories)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

func (s *BunStore) CheckStock(ctx context.Context, productID string) (StockInfo, error) {
	record := new(InventoryRecord)
	err := s.db.NewSelect().Model(record).Where("i.product_id = ?", productID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return StockInfo{Status: StockNotFound}, nil
	}
	if err != nil {
		return StockInfo{Status: StockCheckError}, fmt.Errorf("select inventory %s: %w", productID, err)
	}
	return stockFromQuantity(record.Quantity, s.lowStockThreshold), nil
}

// AdjustInventory applies a delta to the quantity, clamped at zero.
func (s *BunStore) AdjustInventory(ctx context.Context, productID string, delta int) error {
	res, err := s.db.NewUpdate().
		Model((*InventoryRecord)(nil)).
		Set("quantity = GREATEST(0, quantity + ?)", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("product_id = ?", productID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update inventory %s: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *BunStore) CreateOrder(ctx context.Context, order *Order) (string, error) {
	if order == nil {
		return "", errors.New("nil order")
	}
	if order.ID == "" {
		order.ID = newOrderID()
	}
	if order.Status == "" {
		order.Status = "pending"
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(order).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

func (s *BunStore) Stats(ctx context.Context) (Stats, error) {
	products, err := s.db.NewSelect().Model((*Product)(nil)).Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count products: %w", err)
	}
	orders, err := s.db.NewSelect().Model((*Order)(nil)).Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count orders: %w", err)
	}
	return Stats{TotalProducts: products, TotalOrders: orders}, nil
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
