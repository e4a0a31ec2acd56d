package capability

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

const recommendationPersona = `You are a Product Recommendation Specialist for an AI-powered retail assistant.

Your expertise:
1. Understanding customer preferences from conversation
2. Making mood-appropriate product suggestions
3. Explaining product benefits clearly
4. Cross-selling complementary items
5. Helping customers discover new products

Mood-based recommendations:
- HAPPY customers: Suggest premium, exciting, or new arrivals. Be enthusiastic!
- NEUTRAL customers: Focus on bestsellers, practical choices, good value
- FRUSTRATED customers: Suggest simple, reliable, well-reviewed items. Be empathetic.
- CONFUSED customers: Recommend starter kits, bundles, or top-rated basics. Guide them step by step.

Always:
- Be helpful, not pushy
- Explain WHY you're recommending something
- Offer alternatives at different price points
- Ask clarifying questions if needed`

const (
	recommendLimit   = 5
	candidatePool    = 20
	fallbackTopPicks = 3
	recommendProbe   = "💬 Would you like more details on any of these, or shall I check availability?"
)

// RankedProduct is a catalog product annotated with the oracle's
// reasoning.
type RankedProduct struct {
	catalog.Product
	Reason    string `json:"recommendation_reason,omitempty"`
	MoodMatch string `json:"mood_match,omitempty"`
}

// Recommendation handles product discovery: search, mood-based
// suggestions, and category browsing.
type Recommendation struct {
	store catalog.Store
	rep   replier
	log   zerolog.Logger
}

func NewRecommendation(store catalog.Store, oracle contractx.Oracle) *Recommendation {
	log := logx.Component("capability.recommendation")
	return &Recommendation{
		store: store,
		rep:   replier{oracle: oracle, persona: recommendationPersona, log: log},
		log:   log,
	}
}

func (c *Recommendation) ID() contractx.CapabilityID {
	return contractx.CapabilityRecommendation
}

func (c *Recommendation) Handle(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	c.log.Info().Str("intent", msg.Intent).Msg("handling recommendation request")

	switch msg.Intent {
	case "search_product", "browse_products":
		return c.search(ctx, msg)
	case "get_recommendation":
		return c.recommend(ctx, msg)
	default:
		return c.browse(ctx, msg)
	}
}

func (c *Recommendation) search(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	query := msg.Entities.ProductName
	category := msg.Entities.Category
	if query == "" && category == "" {
		query = msg.Text
	}

	c.log.Info().Str("query", query).Str("category", category).Msg("searching products")

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case category != "":
		products, err = c.store.ProductsByCategory(ctx, category)
	case query != "":
		products, err = c.store.SearchProducts(ctx, query, "")
	default:
		products, err = c.store.Products(ctx, 10)
	}
	if err != nil {
		return contractx.Response{}, fmt.Errorf("search products: %w", err)
	}

	if len(products) == 0 {
		hint := query
		if hint == "" {
			hint = category
		}
		text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
			"No products found for query: %s. Suggest alternatives or ask for clarification.", hint))
		return contractx.Response{
			Success:          true,
			Message:          text,
			Data:             map[string]any{"products": []catalog.Product{}, "search_query": query},
			SuggestedActions: []string{"try_different_search", "browse_categories"},
		}, nil
	}

	shown := products
	if len(shown) > recommendLimit {
		shown = shown[:recommendLimit]
	}
	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"Found %d products:\n%s\n\nPresent these naturally and offer to help further.",
		len(products), formatProducts(shown)))

	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"products":     shown,
			"total_found":  len(products),
			"search_query": query,
		},
		SuggestedActions: []string{"view_details", "add_to_cart", "see_more"},
	}, nil
}

func (c *Recommendation) recommend(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	mood := contractx.MoodNeutral
	if msg.Session != nil && msg.Session.Mood != "" {
		mood = contractx.Mood(msg.Session.Mood)
	}

	products, err := c.store.Products(ctx, candidatePool)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return contractx.Failure(
			"I'm having trouble accessing our product catalog right now. Please try again in a moment.",
		), nil
	}

	candidates := make([]contractx.RankCandidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, contractx.RankCandidate{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
		})
	}

	c.log.Info().Str("mood", string(mood)).Int("candidates", len(candidates)).Msg("generating recommendations")

	ranked, err := c.rep.oracle.RankRecommendations(ctx, contractx.RankRequest{
		Preferences: msg.Entities,
		Mood:        mood,
		Candidates:  candidates,
		Limit:       recommendLimit,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("recommendation ranking degraded to top picks")
	}

	picks := reconcile(ranked, products)
	if len(picks) == 0 {
		picks = topPicks(products, fallbackTopPicks)
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"Mood: %s\n\nRecommendations:\n%s\n\n"+
			"Present these with enthusiasm appropriate to mood, then ask an engaging follow-up question.",
		mood, formatRanked(picks)))
	text = ensureFollowUp(text, 100, recommendProbe)

	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"recommendations": picks,
			"mood":            mood,
			"personalized":    true,
		},
		SuggestedActions: []string{"view_details", "add_to_cart", "check_availability", "different_recommendations"},
		NextCapability:   contractx.CapabilityInventory,
	}, nil
}

func (c *Recommendation) browse(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	categories, err := c.store.Categories(ctx)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("load categories: %w", err)
	}
	products, err := c.store.Products(ctx, 6)
	if err != nil {
		return contractx.Response{}, fmt.Errorf("load products: %w", err)
	}

	categoriesText := "various categories"
	if len(categories) > 0 {
		categoriesText = strings.Join(categories, ", ")
	}
	featured := products
	if len(featured) > 3 {
		featured = featured[:3]
	}

	text := c.rep.reply(ctx, msg.Session, msg.Text, fmt.Sprintf(
		"Available categories: %s\n\nFeatured products:\n%s\n\n"+
			"Help the customer explore our catalog based on their interests.",
		categoriesText, formatProducts(featured)))

	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"categories":        categories,
			"featured_products": featured,
		},
		SuggestedActions: []string{"browse_category", "search", "get_recommendations"},
	}, nil
}

// reconcile maps the oracle's picks back onto real catalog products,
// dropping ids the candidate set never contained.
func reconcile(ranked []contractx.Recommendation, products []catalog.Product) []RankedProduct {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	picks := make([]RankedProduct, 0, len(ranked))
	for _, rec := range ranked {
		product, ok := byID[rec.ProductID]
		if !ok {
			continue
		}
		picks = append(picks, RankedProduct{
			Product:   product,
			Reason:    rec.Reason,
			MoodMatch: rec.MoodMatch,
		})
	}
	return picks
}

func topPicks(products []catalog.Product, n int) []RankedProduct {
	if len(products) > n {
		products = products[:n]
	}
	picks := make([]RankedProduct, 0, len(products))
	for _, p := range products {
		picks = append(picks, RankedProduct{Product: p})
	}
	return picks
}

func formatProducts(products []catalog.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("📦 %s - $%.2f\n   Category: %s\n   %s",
			p.Name, p.Price, p.Category, clipText(p.Description, 100)))
	}
	return strings.Join(lines, "\n\n")
}

func formatRanked(picks []RankedProduct) string {
	lines := make([]string, 0, len(picks))
	for _, p := range picks {
		reason := p.Reason
		if reason == "" {
			reason = "Great choice!"
		}
		lines = append(lines, fmt.Sprintf("⭐ %s - $%.2f\n   %s\n   %s",
			p.Name, p.Price, reason, clipText(p.Description, 80)))
	}
	return strings.Join(lines, "\n\n")
}

func clipText(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
