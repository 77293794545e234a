// Package orchestrator composes the classifier, responder, memory manager,
// and stores into the single entrypoint that processes one conversational
// turn end to end.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
	nodex "github.com/fitlead/fitlead/agent/nodes/orchestrator"
	sessionx "github.com/fitlead/fitlead/agent/session"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// fallbackReply is the only reply a caller sees when a turn fails; the
// diagnostic detail travels separately in TurnResult.Error.
const fallbackReply = "I apologize, but I'm having trouble processing your request right now. Please try again."

type Orchestrator struct {
	store      leadx.Store
	classifier contractx.Classifier
	responder  contractx.Responder
	memory     contractx.MemoryManager
	sessions   *sessionx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store leadx.Store,
	classifier contractx.Classifier,
	responder contractx.Responder,
	memory contractx.MemoryManager,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("lead store is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	if memory == nil {
		return nil, errors.New("memory manager is required")
	}

	o := &Orchestrator{
		store:      store,
		classifier: classifier,
		responder:  responder,
		memory:     memory,
		sessions:   sessionx.NewRegistry(),
		now:        time.Now,
	}

	graphRunner, err := o.compileProcessTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process runs one turn. Turns for the same session are serialized; turns
// for different sessions run concurrently. It never returns an error: a
// failed turn yields the safe fallback reply with diagnostic detail in
// Error.
func (o *Orchestrator) Process(ctx context.Context, sessionID, text string) contractx.TurnResult {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return failedTurn(id, nodex.ErrInvalidSession)
	}

	s := o.sessions.Acquire(id)
	s.BeginTurn()
	defer s.EndTurn()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: id,
		Text:      text,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("turn processing failed")
		return failedTurn(id, err)
	}

	return contractx.TurnResult{
		Response:    out.Reply,
		SessionID:   id,
		IntentLevel: out.Intent.Level,
		BookingMade: out.BookingMade,
	}
}

// Reset drops the in-process session only; persisted lead memory survives.
func (o *Orchestrator) Reset(sessionID string) bool {
	return o.sessions.Reset(strings.TrimSpace(sessionID))
}

// EvictIdleSessions drops sessions idle longer than maxIdle.
func (o *Orchestrator) EvictIdleSessions(maxIdle time.Duration) int {
	return o.sessions.EvictIdle(maxIdle)
}

// SessionCount reports live in-process sessions, for health reporting.
func (o *Orchestrator) SessionCount() int {
	return o.sessions.Len()
}

func failedTurn(sessionID string, cause error) contractx.TurnResult {
	return contractx.TurnResult{
		Response:    fallbackReply,
		SessionID:   sessionID,
		IntentLevel: contractx.IntentUnknown,
		BookingMade: false,
		Error:       cause.Error(),
	}
}
