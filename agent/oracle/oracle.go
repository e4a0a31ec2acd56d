// Package oracle implements the language-understanding boundary on top of
// Groq chat completions in JSON mode. Every operation degrades to a safe
// default result when the model call or its parsing fails, so a broken
// oracle can never break a conversation turn.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/prompt"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/groq"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

var availableIntents = []string{
	"browse_products",
	"search_product",
	"get_recommendation",
	"check_availability",
	"check_stock",
	"add_to_cart",
	"view_cart",
	"checkout",
	"make_payment",
	"confirm_action",
	"track_order",
	"general_question",
	"greeting",
	"farewell",
}

const fallbackReply = "I apologize, but I'm having trouble processing your request. Please try again."

// GroqOracle satisfies contract.Oracle using one chat completion per
// operation.
type GroqOracle struct {
	client  *groq.Client
	prompts prompt.PromptSet
	log     zerolog.Logger
}

func New(client *groq.Client) *GroqOracle {
	return &GroqOracle{
		client:  client,
		prompts: prompt.LoadPromptSet(),
		log:     logx.Component("oracle"),
	}
}

func (o *GroqOracle) DetectLanguage(ctx context.Context, text string) (contractx.LanguageResult, error) {
	fallback := contractx.LanguageResult{Code: "en", Name: "English", Confidence: 0.5}

	raw, err := o.client.Complete(ctx, groq.Request{
		Fast: true,
		Messages: []groq.Message{
			{Role: groq.RoleSystem, Content: o.prompts.Language},
			{Role: groq.RoleUser, Content: "Detect language: " + text},
		},
		Temperature: 0.1,
		MaxTokens:   100,
		JSONMode:    true,
	})
	if err != nil {
		return fallback, fmt.Errorf("%w: detect language: %v", contractx.ErrOracleInvoke, err)
	}

	var result contractx.LanguageResult
	if err := json.Unmarshal([]byte(trimJSON(raw)), &result); err != nil || result.Code == "" {
		o.log.Warn().Str("raw", clip(raw, 200)).Msg("language detection returned unparseable JSON")
		return fallback, fmt.Errorf("%w: detect language: bad schema", contractx.ErrSchemaViolation)
	}
	return result, nil
}

func (o *GroqOracle) AnalyzeMood(ctx context.Context, text string, history []statex.Turn) (contractx.MoodResult, error) {
	fallback := contractx.MoodResult{Mood: contractx.MoodNeutral, Confidence: 0.5, SuggestedTone: "professional"}

	historyContext := ""
	if len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, t := range history {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Text))
		}
		historyContext = "Recent conversation:\n" + strings.Join(lines, "\n")
	}

	raw, err := o.client.Complete(ctx, groq.Request{
		Messages: []groq.Message{
			{Role: groq.RoleSystem, Content: fmt.Sprintf(o.prompts.Mood, historyContext)},
			{Role: groq.RoleUser, Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   200,
		JSONMode:    true,
	})
	if err != nil {
		return fallback, fmt.Errorf("%w: analyze mood: %v", contractx.ErrOracleInvoke, err)
	}

	var result contractx.MoodResult
	if err := json.Unmarshal([]byte(trimJSON(raw)), &result); err != nil || result.Mood == "" {
		o.log.Warn().Str("raw", clip(raw, 200)).Msg("mood analysis returned unparseable JSON")
		return fallback, fmt.Errorf("%w: analyze mood: bad schema", contractx.ErrSchemaViolation)
	}
	if result.SuggestedTone == "" {
		result.SuggestedTone = "professional"
	}
	return result, nil
}

// intentPayload matches the classifier's JSON shape before entity
// normalization; entity values arrive with unreliable types.
type intentPayload struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
	Target     string         `json:"target_capability"`
}

func (o *GroqOracle) ClassifyIntent(ctx context.Context, text string, digest string) (contractx.IntentResult, error) {
	fallback := contractx.IntentResult{
		Intent:     "general_question",
		Confidence: 0.5,
		Target:     contractx.CapabilityOrchestrator,
	}

	contextHint := ""
	if digest != "" {
		contextHint = "\n\nRecent conversation context:\n" + digest +
			"\n\nUse this context to understand confirmations like 'yes', 'proceed', 'do it', etc."
	}

	raw, err := o.client.Complete(ctx, groq.Request{
		Messages: []groq.Message{
			{Role: groq.RoleSystem, Content: fmt.Sprintf(o.prompts.Intent, strings.Join(availableIntents, ", "), contextHint)},
			{Role: groq.RoleUser, Content: text},
		},
		Temperature: 0.2,
		MaxTokens:   300,
		JSONMode:    true,
	})
	if err != nil {
		return fallback, fmt.Errorf("%w: classify intent: %v", contractx.ErrOracleInvoke, err)
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(trimJSON(raw)), &payload); err != nil || payload.Intent == "" {
		o.log.Warn().Str("raw", clip(raw, 200)).Msg("intent classification returned unparseable JSON")
		return fallback, fmt.Errorf("%w: classify intent: bad schema", contractx.ErrSchemaViolation)
	}

	result := contractx.IntentResult{
		Intent:     payload.Intent,
		Confidence: payload.Confidence,
		Entities:   normalizeEntities(payload.Entities),
		Target:     resolveTarget(payload.Target),
	}
	return result, nil
}

func (o *GroqOracle) GenerateReply(ctx context.Context, req contractx.ReplyRequest) (string, error) {
	messages := make([]groq.Message, 0, len(req.History)+3)
	messages = append(messages, groq.Message{Role: groq.RoleSystem, Content: req.Persona})

	history := req.History
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	for _, t := range history {
		role := groq.RoleUser
		if t.Role == statex.RoleAssistant {
			role = groq.RoleAssistant
		}
		messages = append(messages, groq.Message{Role: role, Content: t.Text})
	}

	messages = append(messages, groq.Message{
		Role:    groq.RoleSystem,
		Content: fmt.Sprintf(o.prompts.ReplyContext, req.ContextSummary, req.AdditionalContext),
	})
	messages = append(messages, groq.Message{Role: groq.RoleUser, Content: req.UserText})

	reply, err := o.client.Complete(ctx, groq.Request{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return fallbackReply, fmt.Errorf("%w: generate reply: %v", contractx.ErrOracleInvoke, err)
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackReply, fmt.Errorf("%w: generate reply: empty completion", contractx.ErrSchemaViolation)
	}
	return reply, nil
}

const maxRankCandidates = 20

func (o *GroqOracle) RankRecommendations(ctx context.Context, req contractx.RankRequest) ([]contractx.Recommendation, error) {
	candidates := req.Candidates
	if len(candidates) > maxRankCandidates {
		candidates = candidates[:maxRankCandidates]
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("- ID: %s, Name: %s, Category: %s, Price: $%.2f", c.ID, c.Name, c.Category, c.Price))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}
	preferences := describePreferences(req.Preferences)

	raw, err := o.client.Complete(ctx, groq.Request{
		Messages: []groq.Message{
			{
				Role:    groq.RoleSystem,
				Content: fmt.Sprintf(o.prompts.Recommend, strings.Join(lines, "\n"), req.Mood, preferences, limit),
			},
			{
				Role:    groq.RoleUser,
				Content: fmt.Sprintf("Recommend products for a %s customer interested in: %s", req.Mood, preferences),
			},
		},
		Temperature: 0.6,
		MaxTokens:   500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rank recommendations: %v", contractx.ErrOracleInvoke, err)
	}

	recs, ok := parseRecommendations(trimJSON(raw))
	if !ok {
		o.log.Warn().Str("raw", clip(raw, 200)).Msg("recommendation ranking returned unparseable JSON")
		return nil, fmt.Errorf("%w: rank recommendations: bad schema", contractx.ErrSchemaViolation)
	}
	return recs, nil
}

// parseRecommendations accepts either a bare JSON array or an object with
// a "recommendations" key, and drops entries without a product id.
func parseRecommendations(raw string) ([]contractx.Recommendation, bool) {
	var direct []contractx.Recommendation
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return keepValid(direct), true
	}

	var wrapped struct {
		Recommendations []contractx.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Recommendations != nil {
		return keepValid(wrapped.Recommendations), true
	}
	return nil, false
}

func keepValid(recs []contractx.Recommendation) []contractx.Recommendation {
	valid := recs[:0]
	for _, r := range recs {
		if r.ProductID != "" {
			valid = append(valid, r)
		}
	}
	return valid
}

// normalizeEntities maps the well-known keys into the typed struct and
// keeps everything else in Extra. Quantity arrives as a number or a
// numeric string depending on the model's whim.
func normalizeEntities(raw map[string]any) contractx.Entities {
	var out contractx.Entities
	for key, value := range raw {
		switch key {
		case "product_id":
			out.ProductID = asString(value)
		case "product_name":
			out.ProductName = asString(value)
		case "category":
			out.Category = asString(value)
		case "quantity":
			out.Quantity = asInt(value)
		case "price_range":
			out.PriceRange = asString(value)
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[key] = value
		}
	}
	return out
}

func resolveTarget(target string) contractx.CapabilityID {
	switch contractx.CapabilityID(strings.ToLower(strings.TrimSpace(target))) {
	case contractx.CapabilityRecommendation:
		return contractx.CapabilityRecommendation
	case contractx.CapabilityInventory:
		return contractx.CapabilityInventory
	case contractx.CapabilityPayment:
		return contractx.CapabilityPayment
	default:
		return contractx.CapabilityOrchestrator
	}
}

func describePreferences(e contractx.Entities) string {
	parts := make([]string, 0, 4)
	if e.Category != "" {
		parts = append(parts, "category "+e.Category)
	}
	if e.ProductName != "" {
		parts = append(parts, e.ProductName)
	}
	if e.PriceRange != "" {
		parts = append(parts, "price range "+e.PriceRange)
	}
	if len(parts) == 0 {
		return "general shopping"
	}
	return strings.Join(parts, ", ")
}

func asString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch value := v.(type) {
	case float64:
		return int(value)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return 0
}

// trimJSON strips markdown code fences some models wrap around JSON
// despite JSON mode.
func trimJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
