package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
)

// WriteMemory folds the exchange into the lead profile and persists it
// best-effort: by this point the user already has their reply, so a save
// failure (including a lost version race) is logged, not surfaced.
func WriteMemory(ctx context.Context, in *GraphState, manager contractx.MemoryManager, store leadx.Store) (*GraphState, error) {
	updated := manager.Update(ctx, in.Memory, in.Text, in.Reply, in.History)
	if updated == nil {
		return in, nil
	}
	updated.LastIntent = string(in.Intent.Level)

	if err := store.Save(ctx, updated); err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).
			Msg("lead memory save failed")
		return in, nil
	}

	in.Memory = updated
	return in, nil
}
