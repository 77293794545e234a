// Package orchestratornode holds the per-step functions of the turn
// pipeline. Each node takes the accumulated GraphState and returns it
// advanced by one step; only validation and reply generation may fail the
// turn.
package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
	sessionx "github.com/fitlead/fitlead/agent/session"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply       string
	Intent      contractx.IntentClassification
	BookingMade bool
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session       *sessionx.Session
	Memory        *leadx.Memory
	MemoryContext string
	History       string

	Intent      contractx.IntentClassification
	Reply       string
	ToolTrace   []contractx.ToolInvocation
	BookingMade bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
