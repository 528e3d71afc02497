package services

import "github.com/dskvich/memi-chat/pkg/store"

// Labels of the group chat model picker.
const (
	SelectedAIThinkMore = store.DefaultSelectedAI
	SelectedAIThinkFast = "Think Fast"
)

// Models names the model used for each kind of generation.
type Models struct {
	Chat      string
	Title     string
	Memory    string
	Persona   string
	Agent     string
	ThinkMore string
	ThinkFast string
}

// ForSelectedAI maps a picker label to a model. Unknown labels get the
// default agent model.
func (m Models) ForSelectedAI(label string) string {
	switch label {
	case SelectedAIThinkMore:
		return m.ThinkMore
	case SelectedAIThinkFast:
		return m.ThinkFast
	default:
		return m.Agent
	}
}
