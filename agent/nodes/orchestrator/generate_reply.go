package orchestratornode

import (
	"context"

	contractx "github.com/fitlead/fitlead/agent/contract"
)

// GenerateReply runs the persona pipeline. Booking state is read
// structurally from the invocation trace, never scraped from reply text.
func GenerateReply(ctx context.Context, in *GraphState, responder contractx.Responder) (*GraphState, error) {
	resp, err := responder.Respond(ctx, contractx.ResponderRequest{
		SessionID:     in.SessionID,
		UserMessage:   in.Text,
		MemoryContext: in.MemoryContext,
		History:       in.History,
		Intent:        in.Intent,
	})
	if err != nil {
		return nil, err
	}

	in.Reply = resp.Reply
	in.ToolTrace = resp.ToolTrace
	for _, inv := range resp.ToolTrace {
		if inv.Booking != nil && inv.Booking.Success {
			in.BookingMade = true
			break
		}
	}
	return in, nil
}
