package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

const paymentPersona = `You are a Payment & Checkout Specialist for an AI-powered retail assistant.

Your expertise:
1. Guiding customers through checkout smoothly
2. Processing payments securely
3. Handling payment issues with empathy
4. Providing clear order confirmations
5. Answering payment-related questions

Key behaviors:
- Always confirm cart contents before payment
- Be reassuring about security
- Handle errors gracefully - never blame the customer
- Provide clear totals including tax
- Give order confirmation with reference number`

const (
	// TaxRate is applied to the cart subtotal at checkout.
	TaxRate = 0.08

	defaultPaymentMethod = "credit_card"
	orderConfirmedTopic  = "orders.confirmed"

	checkoutProbe = "🛍️ Is there anything else I can help you with? Would you like to browse more products or get recommendations?"
)

var paymentMethods = []string{"credit_card", "debit_card", "paypal", "apple_pay"}

var paymentErrorMessages = map[contractx.PaymentErrorCode]string{
	contractx.PaymentDeclined:          "The card was declined. Please try a different card or payment method.",
	contractx.PaymentInsufficientFunds: "There were insufficient funds. Would you like to try a different payment method?",
	contractx.PaymentExpiredCard:       "The card appears to be expired. Please update your card details.",
	contractx.PaymentNetworkError:      "We experienced a network issue. Please try again.",
	contractx.PaymentUnknownError:      "Something went wrong with the payment. Please try again.",
}

// CartTotals is the priced view of a cart.
type CartTotals struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// ComputeCartTotals sums lines at price*quantity and applies the tax rate.
func ComputeCartTotals(cart []statex.CartLine) CartTotals {
	var totals CartTotals
	for _, line := range cart {
		totals.Subtotal += line.Price * float64(line.Quantity)
		totals.ItemCount += line.Quantity
	}
	totals.Tax = totals.Subtotal * TaxRate
	totals.Total = totals.Subtotal + totals.Tax
	return totals
}

// StockIssue is one cart line blocking checkout.
type StockIssue struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Issue     string `json:"issue"`
	Available int    `json:"available"`
}

// Payment owns the cart and checkout flow.
type Payment struct {
	store     catalog.Store
	gateway   contractx.PaymentGateway
	publisher contractx.Publisher
	rep       replier
	log       zerolog.Logger
}

func NewPayment(store catalog.Store, oracle contractx.Oracle, gateway contractx.PaymentGateway, publisher contractx.Publisher) *Payment {
	log := logx.Component("capability.payment")
	return &Payment{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		rep:       replier{oracle: oracle, persona: paymentPersona, log: log},
		log:       log,
	}
}

func (c *Payment) ID() contractx.CapabilityID {
	return contractx.CapabilityPayment
}

func (c *Payment) Handle(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	c.log.Info().Str("intent", msg.Intent).Msg("handling payment request")

	switch msg.Intent {
	case "checkout", "make_payment", "pay":
		return c.checkout(ctx, msg)
	case "view_cart", "cart":
		return c.viewCart(ctx, msg)
	case "add_to_cart":
		return c.addToCart(ctx, msg)
	default:
		text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
			"Available payment methods: %s\nTax rate: %.0f%%\n\nAnswer the customer's payment-related question.",
			strings.Join(paymentMethods, ", "), TaxRate*100))
		return contractx.Response{
			Success:          true,
			Message:          text,
			SuggestedActions: []string{"view_cart", "checkout", "browse_products"},
		}, nil
	}
}

func (c *Payment) viewCart(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	cart := sessionCart(msg.Session)
	if len(cart) == 0 {
		text := c.rep.reply(ctx, msg.Session, msg.Text,
			"Cart is empty. Encourage browsing or asking for recommendations.")
		return contractx.Response{
			Success:          true,
			Message:          text,
			Data:             map[string]any{"cart": []statex.CartLine{}, "total": 0.0},
			SuggestedActions: []string{"browse_products", "get_recommendations"},
			NextCapability:   contractx.CapabilityRecommendation,
		}, nil
	}

	totals := ComputeCartTotals(cart)

	var sb strings.Builder
	sb.WriteString("Cart Contents:\n")
	for _, line := range cart {
		fmt.Fprintf(&sb, "• %s x%d - $%.2f\n", line.Name, line.Quantity, line.Price*float64(line.Quantity))
	}
	fmt.Fprintf(&sb, "\nSubtotal: $%.2f\nTax (%.0f%%): $%.2f\nTotal: $%.2f\n\nItems in cart: %d",
		totals.Subtotal, TaxRate*100, totals.Tax, totals.Total, totals.ItemCount)

	text := c.rep.reply(ctx, msg.Session, msg.Text, sb.String())
	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"cart":     cart,
			"subtotal": totals.Subtotal,
			"tax":      totals.Tax,
			"total":    totals.Total,
		},
		SuggestedActions: []string{"proceed_to_checkout", "continue_shopping", "remove_item"},
	}, nil
}

func (c *Payment) addToCart(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	productID := msg.Entities.ProductID
	quantity := msg.Entities.Quantity
	if quantity < 1 {
		quantity = 1
	}

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
			"I need to know which product you'd like to add. Could you specify?",
			"specify_product", "browse_products",
		), nil
	}

	stock, err := c.store.CheckStock(ctx, productID)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("check stock for %s: %w", productID, err)
	}
	if !stock.InStock {
		resp := contractx.Failure(
			"I'm sorry, this item is currently out of stock.",
			"view_alternatives", "notify_when_available",
		)
		resp.Data = map[string]any{"stock": stock}
		resp.NextCapability = contractx.CapabilityInventory
		return resp, nil
	}
	if stock.Quantity < quantity {
		resp := contractx.Failure(
			fmt.Sprintf("We only have %d units available.", stock.Quantity),
			"adjust_quantity", "view_alternatives",
		)
		resp.Data = map[string]any{"stock": stock}
		return resp, nil
	}

	product, err := c.store.ProductByID(ctx, productID)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("load product %s: %w", productID, err)
	}

	if msg.Session != nil {
		if err := msg.Session.AddCartLine(statex.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		}); err != nil {
			return contractx.Response{}, fmt.Errorf("add cart line: %w", err)
		}
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"Added %dx %s to cart. Ask if they want to continue shopping or checkout.", quantity, product.Name))
	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"product":  product,
			"quantity": quantity,
			"action":   "added_to_cart",
		},
		SuggestedActions: []string{"continue_shopping", "view_cart", "checkout"},
	}, nil
}

func (c *Payment) checkout(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	cart := sessionCart(msg.Session)
	if len(cart) == 0 {
		resp := contractx.Failure(
			"Your cart is empty! Would you like to browse our products first?",
			"browse_products", "get_recommendations",
		)
		resp.Data = map[string]any{"error": "empty_cart"}
		resp.NextCapability = contractx.CapabilityRecommendation
		return resp, nil
	}

	totals := ComputeCartTotals(cart)

	issues, err := c.verifyCartStock(ctx, cart)
	if err != nil {
		return contractx.Response{}, err
	}
	if len(issues) > 0 {
		var sb strings.Builder
		sb.WriteString("Stock issues found:\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- %s: %s\n", issue.Name, issue.Issue)
		}
		sb.WriteString("\nHelp customer resolve these issues.")

		text := c.rep.reply(ctx, msg.Session, msg.Text, sb.String())
		resp := contractx.Failure(text, "update_quantities", "remove_items", "view_alternatives")
		resp.Data = map[string]any{"stock_issues": issues}
		return resp, nil
	}

	c.log.Info().Float64("total", totals.Total).Str("method", defaultPaymentMethod).Msg("processing payment")

	outcome, err := c.gateway.Charge(ctx, totals.Total, defaultPaymentMethod)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("charge: %w", err)
	}
	if !outcome.Success {
		return c.paymentFailure(ctx, msg, outcome, totals), nil
	}

	orderID, err := c.completeOrder(ctx, msg, cart, totals)
	if err != nil {
		return contractx.Response{}, err
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"ORDER CONFIRMED! 🎉\n\nOrder Number: %s\nItems: %d\nTotal: $%.2f\n\n"+
			"Thank the customer enthusiastically, give them their order number, mention expected delivery "+
			"(2-3 business days), and offer further help.",
		orderID, totals.ItemCount, totals.Total))
	text = ensureFollowUp(text, 50, checkoutProbe)

	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"order_id": orderID,
			"total":    totals.Total,
			"items":    cart,
			"status":   "confirmed",
		},
		SuggestedActions: []string{"browse_more", "track_order", "get_recommendations", "view_order"},
	}, nil
}

// completeOrder persists the order, decrements inventory, clears the
// cart, and announces the confirmation. Only the order write can fail the
// checkout; later steps degrade with a log line.
func (c *Payment) completeOrder(ctx context.Context, msg contractx.Message, cart []statex.CartLine, totals CartTotals) (string, error) {
	userID := "guest"
	if msg.Session != nil && msg.Session.UserID != "" {
		userID = msg.Session.UserID
	}

	orderID, err := c.store.CreateOrder(ctx, &catalog.Order{
		UserID:        userID,
		Items:         cart,
		TotalAmount:   totals.Total,
		PaymentMethod: defaultPaymentMethod,
		Status:        "confirmed",
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	c.log.Info().Str("order_id", orderID).Msg("order created")

	for _, line := range cart {
		if err := c.store.AdjustInventory(ctx, line.ProductID, -line.Quantity); err != nil {
			c.log.Error().Err(err).Str("product_id", line.ProductID).Msg("inventory decrement failed")
		}
	}

	if msg.Session != nil {
		msg.Session.ClearCart()
	}

	if c.publisher != nil {
		event := map[string]any{
			"order_id": orderID,
			"user_id":  userID,
			"total":    totals.Total,
			"items":    totals.ItemCount,
		}
		if err := c.publisher.Publish(ctx, orderConfirmedTopic, event); err != nil {
			c.log.Error().Err(err).Str("order_id", orderID).Msg("order event enqueue failed")
		}
	}
	return orderID, nil
}

// paymentFailure keeps the cart intact and answers with the empathetic
// message for the gateway's error code.
func (c *Payment) paymentFailure(ctx context.Context, msg contractx.Message, outcome contractx.PaymentOutcome, totals CartTotals) contractx.Response {
	errorMessage, ok := paymentErrorMessages[outcome.ErrorCode]
	if !ok {
		errorMessage = paymentErrorMessages[contractx.PaymentUnknownError]
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"Payment failed: %s\nHelp customer resolve this empathetically. Cart total: $%.2f",
		errorMessage, totals.Total))

	resp := contractx.Failure(text, "try_different_payment", "try_again", "contact_support")
	resp.Data = map[string]any{
		"error_code":     outcome.ErrorCode,
		"cart_preserved": true,
		"total":          totals.Total,
	}
	return resp
}

func (c *Payment) verifyCartStock(ctx context.Context, cart []statex.CartLine) ([]StockIssue, error) {
	var issues []StockIssue
	for _, line := range cart {
		stock, err := c.store.CheckStock(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("verify stock for %s: %w", line.ProductID, err)
		}
		switch {
		case !stock.InStock:
			issues = append(issues, StockIssue{
				ProductID: line.ProductID,
				Name:      line.Name,
				Issue:     "Out of stock",
			})
		case stock.Quantity < line.Quantity:
			issues = append(issues, StockIssue{
				ProductID: line.ProductID,
				Name:      line.Name,
				Issue:     fmt.Sprintf("Only %d available", stock.Quantity),
				Available: stock.Quantity,
			})
		}
	}
	return issues, nil
}

func sessionCart(session *statex.Session) []statex.CartLine {
	if session == nil {
		return nil
	}
	return session.Cart
}
