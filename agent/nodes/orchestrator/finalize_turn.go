package orchestratornode

// FinalizeTurn projects the accumulated state onto the outward contract.
func FinalizeTurn(in *GraphState) (GraphOutput, error) {
	return GraphOutput{
		Reply:       in.Reply,
		Intent:      in.Intent,
		BookingMade: in.BookingMade,
	}, nil
}
