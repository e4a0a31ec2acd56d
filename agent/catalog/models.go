package catalog

import (
	"time"

	"github.com/uptrace/bun"

	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Category    string    `bun:"category" json:"category"`
	Description string    `bun:"description" json:"description"`
	Price       float64   `bun:"price,notnull" json:"price"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:now()" json:"created_at"`
}

type InventoryRecord struct {
	bun.BaseModel `bun:"table:inventory,alias:i"`

	ProductID string    `bun:"product_id,pk" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:now()" json:"updated_at"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            string           `bun:"id,pk" json:"id"`
	UserID        string           `bun:"user_id,notnull" json:"user_id"`
	Items         []statex.CartLine `bun:"items,type:jsonb" json:"items"`
	TotalAmount   float64          `bun:"total_amount,notnull" json:"total_amount"`
	PaymentMethod string           `bun:"payment_method" json:"payment_method"`
	Status        string           `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt     time.Time        `bun:"created_at,nullzero,default:now()" json:"created_at"`
}

type StockStatus string

const (
	StockAvailable  StockStatus = "available"
	StockOut        StockStatus = "out_of_stock"
	StockNotFound   StockStatus = "not_found"
	StockCheckError StockStatus = "error"
)

// StockInfo is the normalized answer to "can we sell this right now".
type StockInfo struct {
	InStock  bool        `json:"in_stock"`
	Quantity int         `json:"quantity"`
	Status   StockStatus `json:"status"`
	LowStock bool        `json:"low_stock"`
}

// DefaultLowStockThreshold marks the boundary between "in stock" and the
// "selling fast" warning state.
const DefaultLowStockThreshold = 5

func stockFromQuantity(quantity, lowStockThreshold int) StockInfo {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	status := StockAvailable
	if quantity <= 0 {
		status = StockOut
	}
	return StockInfo{
		InStock:  quantity > 0,
		Quantity: quantity,
		Status:   status,
		LowStock: quantity > 0 && quantity <= lowStockThreshold,
	}
}
