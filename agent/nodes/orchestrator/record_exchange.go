package orchestratornode

// RecordExchange appends the completed exchange to the in-process session.
// It runs only after generation succeeded, so a failed turn leaves no trace
// in chat history.
func RecordExchange(in *GraphState) (*GraphState, error) {
	in.Session.Append(in.Text, in.Reply, in.Now)
	in.Session.SetLastIntent(string(in.Intent.Level))
	return in, nil
}
