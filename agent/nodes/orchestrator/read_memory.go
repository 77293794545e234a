package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"

	leadx "github.com/fitlead/fitlead/agent/lead"
)

// ReadMemory loads the lead's persisted profile. A storage failure degrades
// to a fresh default record so the turn proceeds without long-term context
// rather than failing.
func ReadMemory(ctx context.Context, in *GraphState, store leadx.Store) (*GraphState, error) {
	m, err := store.Get(ctx, in.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).
			Msg("lead memory unavailable, proceeding with blank profile")
		m = leadx.New(in.SessionID, in.Now)
	}

	in.Memory = m
	in.MemoryContext = m.RenderContext()
	return in, nil
}
