package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/registry"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
)

const orchestratorPersona = `You are the Master Orchestrator for an AI-powered retail assistant. Your role is to:

1. GREET users warmly in their detected language
2. UNDERSTAND their needs through natural conversation
3. ANALYZE their mood and adapt your tone accordingly
4. ROUTE their requests to specialized agents when needed
5. MAINTAIN context throughout the conversation

Personality:
- Friendly and professional
- Emotionally intelligent - adapt to user's mood
- Helpful without being pushy
- Clear and concise in communication

Always acknowledge the user's emotion and respond appropriately:
- Happy users: Be enthusiastic, suggest premium options
- Neutral users: Be professional, focus on efficiency
- Frustrated users: Be empathetic, prioritize quick resolution
- Confused users: Be patient, offer step-by-step guidance`

var greetings = map[string]string{
	"en": "Hello! Welcome to our store. How can I help you today?",
	"es": "¡Hola! Bienvenido a nuestra tienda. ¿Cómo puedo ayudarte hoy?",
	"fr": "Bonjour! Bienvenue dans notre magasin. Comment puis-je vous aider?",
	"de": "Hallo! Willkommen in unserem Geschäft. Wie kann ich Ihnen helfen?",
	"hi": "नमस्ते! हमारी दुकान में आपका स्वागत है। मैं आपकी कैसे मदद कर सकता हूं?",
}

var farewells = map[string]string{
	"en": "Thank you for visiting! Have a wonderful day!",
	"es": "¡Gracias por visitarnos! ¡Que tengas un día maravilloso!",
	"fr": "Merci de votre visite! Passez une excellente journée!",
	"de": "Danke für Ihren Besuch! Haben Sie einen wunderschönen Tag!",
}

// Route hands the turn to the target capability, or answers directly for
// the conversational intents the orchestrator owns.
func Route(ctx context.Context, in *GraphState, oracle contractx.Oracle, reg *registry.Registry) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	intent := in.Intent.Intent
	target := in.Intent.Target

	if target == contractx.CapabilityOrchestrator || intent == "greeting" || intent == "farewell" || intent == "general_question" {
		in.Response = handleDirect(ctx, in, oracle)
		return in, nil
	}

	msg := contractx.NewMessage(
		contractx.CapabilityOrchestrator, target,
		intent, in.Text, in.Intent.Entities, in.Session, in.Now,
	)

	log.Info().
		Str("session_id", in.SessionID).
		Str("target", string(target)).
		Str("intent", intent).
		Msg("routing to capability")

	resp, err := reg.Dispatch(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("target", string(target)).Msg("capability failed, degrading to apology")
		resp = contractx.Failure("")
	}
	in.Response = resp
	return in, nil
}

func handleDirect(ctx context.Context, in *GraphState, oracle contractx.Oracle) contractx.Response {
	var text string
	switch in.Intent.Intent {
	case "greeting":
		text = greetingFor(in.Session)
	case "farewell":
		text = farewellFor(in.Session)
	default:
		reply, err := oracle.GenerateReply(ctx, contractx.ReplyRequest{
			Persona:        orchestratorPersona,
			ContextSummary: in.Session.ContextSummary(),
			History:        in.Session.RecentHistory(10),
			UserText:       in.Text,
		})
		if err != nil {
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("direct reply degraded to fallback")
		}
		text = reply
	}

	return contractx.Response{
		Success: true,
		Message: text,
		Data: map[string]any{
			"language":   in.Session.Language,
			"mood":       in.Mood,
			"intent":     in.Intent,
			"handled_by": string(contractx.CapabilityOrchestrator),
		},
	}
}

func greetingFor(session *statex.Session) string {
	base, ok := greetings[session.Language]
	if !ok {
		base = greetings["en"]
	}

	switch session.Mood {
	case "frustrated", "angry":
		return base + " I'm here to help make things easier for you."
	case "happy":
		return base + " 😊 Great to have you here!"
	default:
		return base
	}
}

func farewellFor(session *statex.Session) string {
	base, ok := farewells[session.Language]
	if !ok {
		base = farewells["en"]
	}

	if len(session.Cart) > 0 {
		return fmt.Sprintf("%s Don't forget - you have %d items in your cart! Feel free to return anytime to complete your purchase.",
			base, len(session.Cart))
	}
	return base + " Feel free to come back anytime - I'm always here to help! 👋"
}
