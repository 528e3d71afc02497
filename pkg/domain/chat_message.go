package domain

// HistoryEntry is one turn of model-facing chat history.
type HistoryEntry struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// LastMessage references the message the backend inspects for attachments.
type LastMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func NewHistoryEntry(role Role, text string) HistoryEntry {
	return HistoryEntry{Role: role, Parts: []Part{{Text: text}}}
}

// Text joins all text parts of the entry.
func (h HistoryEntry) Text() string {
	var s string
	for _, p := range h.Parts {
		s += p.Text
	}
	return s
}
