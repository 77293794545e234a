package contract

import "time"

type AgentType string

const (
	AgentTypeResponder  AgentType = "responder"
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeMemory     AgentType = "memory"
)

// IntentLevel is the coarse purchase-readiness estimate for a lead.
type IntentLevel string

const (
	IntentLow    IntentLevel = "low"
	IntentMedium IntentLevel = "medium"
	IntentHigh   IntentLevel = "high"

	// IntentUnknown is the sentinel for "never classified": the initial
	// value of a stored profile and the level reported for a failed turn.
	IntentUnknown IntentLevel = "unknown"
)

// ParseIntentLevel maps free-form model output onto a known level.
func ParseIntentLevel(s string) (IntentLevel, bool) {
	switch IntentLevel(s) {
	case IntentLow, IntentMedium, IntentHigh:
		return IntentLevel(s), true
	default:
		return IntentUnknown, false
	}
}

type IntentClassification struct {
	Level         IntentLevel `json:"intent_level"`
	Reasoning     string      `json:"reasoning"`
	KeyIndicators []string    `json:"key_indicators"`
}

// Slot is one bookable trial slot. Synthetic marks slots produced by the
// local fallback generator rather than the scheduling provider.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	Formatted string    `json:"formatted"`
	Status    string    `json:"status"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

type BookingResult struct {
	Success       bool   `json:"success"`
	BookingURL    string `json:"booking_url,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
	Message       string `json:"message"`
}

type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ToolInvocation records one operation performed by the generation pipeline.
// Booking is set when the operation was a booking attempt, so booking state
// can be read structurally instead of scraped from reply text.
type ToolInvocation struct {
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args,omitempty"`
	Result  string         `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Booking *BookingResult `json:"booking,omitempty"`
}

// TurnResult is the outward contract of one processed turn. Error carries
// diagnostic detail for non-user-facing consumers; Response is always safe
// to show the user.
type TurnResult struct {
	Response    string      `json:"response"`
	SessionID   string      `json:"session_id"`
	IntentLevel IntentLevel `json:"intent_level"`
	BookingMade bool        `json:"booking_made"`
	Error       string      `json:"error,omitempty"`
}

// ResponderRequest bundles everything the generation pipeline needs for one
// turn: the persona and tool registry live inside the responder itself.
type ResponderRequest struct {
	SessionID     string
	UserMessage   string
	MemoryContext string
	History       string
	Intent        IntentClassification
}

type ResponderResponse struct {
	Reply     string
	ToolTrace []ToolInvocation
}
