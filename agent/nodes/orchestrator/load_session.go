package orchestratornode

import (
	sessionx "github.com/fitlead/fitlead/agent/session"
)

// maxHistoryExchanges bounds how many past exchanges reach the prompts.
const maxHistoryExchanges = 5

// LoadSession attaches the in-process conversational context and snapshots
// its formatted history. The snapshot is taken once so every later node
// sees the same pre-turn history.
func LoadSession(in *GraphState, registry *sessionx.Registry) (*GraphState, error) {
	in.Session = registry.Acquire(in.SessionID)
	in.History = in.Session.FormatHistory(maxHistoryExchanges)
	return in, nil
}
