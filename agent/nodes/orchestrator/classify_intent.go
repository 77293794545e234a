package orchestratornode

import (
	"context"

	contractx "github.com/fitlead/fitlead/agent/contract"
)

// ClassifyIntent estimates purchase readiness for this message. The
// classifier degrades internally, so this node cannot fail the turn.
func ClassifyIntent(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	in.Intent = classifier.Classify(ctx, in.Text, in.History)
	return in, nil
}
