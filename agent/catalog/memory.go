package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process catalog used by the console channel and
// tests. Semantics mirror BunStore.
type MemoryStore struct {
	mu                sync.RWMutex
	products          map[string]Product
	inventory         map[string]int
	orders            map[string]Order
	lowStockThreshold int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:          make(map[string]Product),
		inventory:         make(map[string]int),
		orders:            make(map[string]Order),
		lowStockThreshold: DefaultLowStockThreshold,
	}
}

// Seed loads a product with its stock level, replacing any previous
// entry with the same id.
func (m *MemoryStore) Seed(product Product, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	m.inventory[product.ID] = quantity
}

func (m *MemoryStore) Products(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *MemoryStore) ProductByID(ctx context.Context, productID string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryStore) SearchProducts(ctx context.Context, query, category string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	var products []Product
	for _, p := range m.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (m *MemoryStore) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return m.SearchProducts(ctx, "", category)
}

func (m *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for _, p := range m.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *MemoryStore) CheckStock(ctx context.Context, productID string) (StockInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	quantity, ok := m.inventory[productID]
	if !ok {
		return StockInfo{Status: StockNotFound}, nil
	}
	return stockFromQuantity(quantity, m.lowStockThreshold), nil
}

func (m *MemoryStore) AdjustInventory(ctx context.Context, productID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	quantity, ok := m.inventory[productID]
	if !ok {
		return ErrProductNotFound
	}
	quantity += delta
	if quantity < 0 {
		quantity = 0
	}
	m.inventory[productID] = quantity
	return nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *Order) (string, error) {
	if order == nil {
		return "", ErrProductNotFound
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
	m.mu.Lock()
	m.orders[order.ID] = *order
	m.mu.Unlock()
	return order.ID, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{TotalProducts: len(m.products), TotalOrders: len(m.orders)}, nil
}
