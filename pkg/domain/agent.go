package domain

import "time"

// DefaultAgentName is the name of the built-in assistant persona.
const DefaultAgentName = "Memi"

type Agent struct {
	ID          *int64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`

	// ConsecutiveReply marks a duplicated turn of the same agent. Never persisted.
	ConsecutiveReply bool `json:"consecutiveReply,omitempty"`
}

// Saved reports whether the agent has been stored by the backend.
func (a Agent) Saved() bool {
	return a.ID != nil
}
