package contract

import (
	"context"

	leadx "github.com/fitlead/fitlead/agent/lead"
)

// Classifier estimates purchase intent for one message. Implementations
// always return a usable classification: on any internal failure they fall
// back to IntentMedium with an explanatory reasoning string.
type Classifier interface {
	Classify(ctx context.Context, message, history string) IntentClassification
}

// Responder runs the persona-driven generation pipeline for one turn and
// reports every operation it performed.
type Responder interface {
	Respond(ctx context.Context, req ResponderRequest) (ResponderResponse, error)
}

// MemoryManager folds one exchange into a lead profile. Implementations are
// never destructive: on any failure they return the input unchanged. The
// returned record always carries the input's identity and created_at, with
// total_messages incremented by exactly one.
type MemoryManager interface {
	Update(ctx context.Context, current *leadx.Memory, userMessage, agentReply, history string) *leadx.Memory
}

// SchedulingGateway is the stateless adapter to the booking provider.
// ListSlots falls back to synthetic slots internally; CreateBooking and
// CancelBooking report provider failures inside the result, not as errors.
type SchedulingGateway interface {
	ListSlots(ctx context.Context, daysAhead int) ([]Slot, error)
	CreateBooking(ctx context.Context, email, name, startTime, timezone string) BookingResult
	CancelBooking(ctx context.Context, bookingRef, reason string) CancelResult
}
