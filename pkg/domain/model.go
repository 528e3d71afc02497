package domain

// ModelRequest is a provider-neutral generation request.
type ModelRequest struct {
	Model             string
	SystemInstruction string
	History           []HistoryEntry
	Prompt            string
	FileURI           string
	MaxOutputTokens   int32
}
