// Package registry holds the capability lookup table. It is constructed
// once at process start and passed by reference to the orchestrator and
// channel adapters; there is no process-wide singleton.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
)

type Registry struct {
	mu           sync.RWMutex
	capabilities map[contractx.CapabilityID]contractx.Capability
}

func New() *Registry {
	return &Registry{
		capabilities: make(map[contractx.CapabilityID]contractx.Capability, 4),
	}
}

// Register is idempotent per id: the last registration wins. It must
// only be called before the first dispatch ordering-wise, but is safe to
// call concurrently.
func (r *Registry) Register(cap contractx.Capability) {
	if cap == nil || cap.ID() == "" {
		return
	}
	r.mu.Lock()
	r.capabilities[cap.ID()] = cap
	r.mu.Unlock()

	log.Info().Str("capability", string(cap.ID())).Msg("registered capability")
}

func (r *Registry) Get(id contractx.CapabilityID) (contractx.Capability, bool) {
	r.mu.RLock()
	cap, ok := r.capabilities[id]
	r.mu.RUnlock()
	return cap, ok
}

// Dispatch routes an envelope to its target capability. An unknown
// target is a recoverable conversation state, not an error: the caller
// gets a success=false Response asking the user to rephrase.
func (r *Registry) Dispatch(ctx context.Context, msg contractx.Message) (contractx.Response, error) {
	cap, ok := r.Get(msg.To)
	if !ok {
		log.Warn().Str("capability", string(msg.To)).Str("intent", msg.Intent).Msg("dispatch to unknown capability")
		resp := contractx.Failure(
			"I'm not sure how to help with that. Could you rephrase your request?",
			"rephrase", "contact_support",
		)
		resp.Data = map[string]any{"error": fmt.Sprintf("%v: %s", contractx.ErrUnknownCapability, msg.To)}
		return resp, nil
	}
	return cap.Handle(ctx, msg)
}
