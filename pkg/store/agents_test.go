package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dskvich/memi-chat/pkg/domain"
)

func agentWithID(id int64, name string) domain.Agent {
	return domain.Agent{ID: &id, Name: name}
}

func TestAgentStoreSelection(t *testing.T) {
	s := NewAgentStore()
	assert.Equal(t, DefaultSelectedAI, s.SelectedAI())
	assert.True(t, s.TalkMore())

	mom, dad := agentWithID(1, "Mom"), agentWithID(2, "Dad")
	s.SetAgents([]domain.Agent{mom, dad})
	s.AddSelectedAgent(mom)
	s.AddSelectedAgent(dad)
	assert.Equal(t, []domain.Agent{mom, dad}, s.SelectedAgents())

	s.RemoveSelectedAgent(agentWithID(1, "renamed"))
	assert.Equal(t, []domain.Agent{dad}, s.SelectedAgents())

	s.DeleteAgent(dad)
	assert.Empty(t, s.SelectedAgents())
	assert.Equal(t, []domain.Agent{mom}, s.Agents())
}

func TestAgentStoreDraftsMatchByName(t *testing.T) {
	s := NewAgentStore()
	draft := domain.Agent{Name: "Draft"}
	s.AddSelectedAgent(draft)
	s.AddSelectedAgent(agentWithID(3, "Draft"))

	s.RemoveSelectedAgent(domain.Agent{Name: "Draft"})

	selected := s.SelectedAgents()
	if assert.Len(t, selected, 1) {
		assert.True(t, selected[0].Saved())
	}
}
