package capability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

const inventoryPersona = `You are an Inventory Specialist for an AI-powered retail assistant.

Your expertise:
1. Real-time stock availability checking
2. Providing accurate product details
3. Suggesting alternatives when items are unavailable
4. Managing customer expectations about stock
5. Helping customers find what they need

Key behaviors:
- Always check actual stock before confirming availability
- If out of stock: immediately suggest similar alternatives
- If low stock: create urgency but don't pressure
- Be transparent about stock limitations`

const (
	maxAlternatives    = 5
	restockTopic       = "inventory.restock-requests"
	stockProbeInStock  = "🛒 Would you like to add this to your cart, or do you have any questions about it?"
	stockProbeOutStock = "🔍 Would you like me to show you some alternatives, or search for something else?"
)

// Inventory answers stock and availability questions and finds
// alternatives for out-of-stock products.
type Inventory struct {
	store     catalog.Store
	publisher contractx.Publisher
	rep       replier
	log       zerolog.Logger
}

func NewInventory(store catalog.Store, oracle contractx.Oracle, publisher contractx.Publisher) *Inventory {
	log := logx.Component("capability.inventory")
	return &Inventory{
		store:     store,
		publisher: publisher,
		rep:       replier{oracle: oracle, persona: inventoryPersona, log: log},
		log:       log,
	}
}

func (c *Inventory) ID() contractx.CapabilityID {
	return contractx.CapabilityInventory
}

func (c *Inventory) Handle(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	c.log.Info().Str("intent", msg.Intent).Str("product", msg.Entities.ProductName).Msg("handling inventory request")

	switch msg.Intent {
	case "check_stock", "check_availability":
		return c.checkStock(ctx, msg)
	case "notify_when_available":
		return c.notifyWhenAvailable(ctx, msg)
	default:
		if msg.Entities.ProductName != "" {
			return c.checkStock(ctx, msg)
		}
		text := c.rep.reply(ctx, msg.Session, msg.Text,
			"User is asking about inventory/availability. Ask which product they want to check.")
		return contractx.Response{
			Success:          true,
			Message:          text,
			SuggestedActions: []string{"specify_product", "browse_products"},
		}, nil
	}
}

func (c *Inventory) checkStock(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	query := msg.Entities.ProductName
	if query == "" {
		query = msg.Text
	}

	products, err := c.store.SearchProducts(ctx, query, "")
	if err != nil {
		return contractx.Response{}, fmt.Errorf("search products: %w", err)
	}
	if len(products) == 0 {
		text := c.rep.reply(ctx, msg.Session, msg.Text,
			"Could not find the requested product. Ask for clarification or suggest browsing categories.")
		return contractx.Response{
			Success:          true,
			Message:          text,
			Data:             map[string]any{"found": false},
			SuggestedActions: []string{"search_again", "browse_categories"},
		}, nil
	}

	product := products[0]
	stock, err := c.store.CheckStock(ctx, product.ID)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("check stock for %s: %w", product.ID, err)
	}

	c.log.Info().Str("product", product.Name).Str("status", string(stock.Status)).Int("quantity", stock.Quantity).Msg("stock check result")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Product: %s\nPrice: $%.2f\nCategory: %s\n\nStock Status: %s\nQuantity Available: %d\n",
		product.Name, product.Price, product.Category, formatStockStatus(stock), stock.Quantity)

	var alternatives []catalog.Product
	if !stock.InStock {
		alternatives = c.findAlternatives(ctx, product)
		if len(alternatives) > 0 {
			sb.WriteString("\nAlternative products available:\n")
			shown := alternatives
			if len(shown) > 3 {
				shown = shown[:3]
			}
			for _, alt := range shown {
				fmt.Fprintf(&sb, "- %s ($%.2f)\n", alt.Name, alt.Price)
			}
			sb.WriteString("\nOffer to show more details on alternatives or help them find something else.")
		}
	} else {
		sb.WriteString("\nAsk if they'd like to add this to their cart, see more details, or continue browsing.")
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, sb.String())
	if stock.InStock {
		text = ensureFollowUp(text, 80, stockProbeInStock)
	} else {
		text = ensureFollowUp(text, 80, stockProbeOutStock)
	}

	resp := contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"product":      product,
			"stock":        stock,
			"alternatives": alternatives,
		},
		SuggestedActions: suggestedStockActions(stock),
	}
	if stock.InStock {
		resp.NextCapability = contractx.CapabilityPayment
	}
	return resp, nil
}

func (c *Inventory) notifyWhenAvailable(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	productID := msg.Entities.ProductID
	if productID == "" && msg.Entities.ProductName != "" {
		products, err := c.store.SearchProducts(ctx, msg.Entities.ProductName, "")
		if err != nil {
			return contractx.Response{}, fmt.Errorf("search products: %w", err)
		}
		if len(products) > 0 {
			productID = products[0].ID
		}
	}
	if productID == "" {
		return contractx.Failure(
			"I need to know which product to watch for you. Could you specify?",
			"specify_product", "browse_products",
		), nil
	}

	event := map[string]any{"product_id": productID}
	if msg.Session != nil {
		event["session_id"] = msg.Session.ID
		event["user_id"] = msg.Session.UserID
	}
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, restockTopic, event); err != nil {
			c.log.Error().Err(err).Str("product_id", productID).Msg("restock notification enqueue failed")
			return contractx.Failure(
				"I couldn't set up the restock alert just now. Please try again in a moment.",
				"try_again", "view_alternatives",
			), nil
		}
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text,
		"Restock alert registered for the product. Confirm warmly and offer alternatives in the meantime.")
	return contractx.Response{
		Success:          true,
		Message:          text,
		Data:             map[string]any{"product_id": productID, "notify": true},
		SuggestedActions: []string{"view_alternatives", "continue_shopping"},
	}, nil
}

// findAlternatives returns in-stock products from the same category,
// closest in price first. Lookup failures just shrink the list.
func (c *Inventory) findAlternatives(ctx context.Context, product catalog.Product) []catalog.Product {
	if product.Category == "" {
		return nil
	}
	candidates, err := c.store.ProductsByCategory(ctx, product.Category)
	if err != nil {
		c.log.Warn().Err(err).Str("category", product.Category).Msg("alternatives lookup failed")
		return nil
	}

	valid := make([]catalog.Product, 0, len(candidates))
	for _, alt := range candidates {
		if alt.ID == product.ID {
			continue
		}
		stock, err := c.store.CheckStock(ctx, alt.ID)
		if err != nil || !stock.InStock {
			continue
		}
		valid = append(valid, alt)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return priceDistance(valid[i].Price, product.Price) < priceDistance(valid[j].Price, product.Price)
	})
	if len(valid) > maxAlternatives {
		valid = valid[:maxAlternatives]
	}
	return valid
}

func priceDistance(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func formatStockStatus(stock catalog.StockInfo) string {
	switch {
	case stock.Status == catalog.StockNotFound:
		return "❓ Product not found in inventory"
	case stock.Status == catalog.StockCheckError:
		return "⚠️ Unable to check stock"
	case !stock.InStock:
		return "❌ Out of Stock"
	case stock.LowStock:
		return fmt.Sprintf("⚠️ Low Stock (Only %d left!)", stock.Quantity)
	default:
		return fmt.Sprintf("✅ In Stock (%d available)", stock.Quantity)
	}
}

func suggestedStockActions(stock catalog.StockInfo) []string {
	switch {
	case !stock.InStock:
		return []string{"view_alternatives", "notify_when_available", "search_similar"}
	case stock.LowStock:
		return []string{"add_to_cart_now", "view_details", "continue_shopping"}
	default:
		return []string{"add_to_cart", "view_details", "continue_shopping"}
	}
}
