// Package orchestrator runs one conversation turn end to end: session
// load, language/mood/intent analysis, confirmation resolution, routing,
// and session save, compiled as an eino graph.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	nodex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/nodes/orchestrator"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/registry"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	DefaultLanguage string
	MaxHistory      int
}

type Orchestrator struct {
	store    statex.Store
	oracle   contractx.Oracle
	registry *registry.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	defaultLanguage string
	maxHistory      int

	now func() time.Time
	log zerolog.Logger
}

func New(store statex.Store, oracle contractx.Oracle, reg *registry.Registry, cfg Config) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if reg == nil {
		return nil, errors.New("capability registry is required")
	}

	defaultLanguage := strings.TrimSpace(cfg.DefaultLanguage)
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 20
	}

	o := &Orchestrator{
		store:           store,
		oracle:          oracle,
		registry:        reg,
		defaultLanguage: defaultLanguage,
		maxHistory:      maxHistory,
		now:             time.Now,
		log:             logx.Component("orchestrator"),
	}

	graphRunner, err := o.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process runs one turn. Input validation errors surface to the caller;
// everything downstream degrades to a success=false Response so a broken
// dependency never kills the conversation.
func (o *Orchestrator) Process(ctx context.Context, sessionID, userID, channel, text string) (contractx.Response, *statex.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return contractx.Response{}, nil, ErrInvalidSession
	}
	if strings.TrimSpace(text) == "" {
		return contractx.Response{}, nil, ErrInvalidMessage
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		UserID:    userID,
		Channel:   channel,
		Text:      text,
	})
	if err != nil {
		o.log.Error().Err(err).Str("session_id", sessionID).Msg("pipeline failed, degrading to apology")
		return contractx.Failure("", "try_again"), nil, nil
	}
	return out.Response, out.Session, nil
}
