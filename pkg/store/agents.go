package store

import (
	"slices"
	"sync"

	"github.com/dskvich/memi-chat/pkg/domain"
)

// DefaultSelectedAI is the model flavour used for group chats until the user picks one.
const DefaultSelectedAI = "Think More"

// AgentStore keeps the user's agents and the group chat selection.
type AgentStore struct {
	mu         sync.RWMutex
	agents     []domain.Agent
	selected   []domain.Agent
	selectedAI string
	talkMore   bool
}

func NewAgentStore() *AgentStore {
	return &AgentStore{
		selectedAI: DefaultSelectedAI,
		talkMore:   true,
	}
}

func (s *AgentStore) SetAgents(agents []domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents = slices.Clone(agents)
}

func (s *AgentStore) Agents() []domain.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.agents)
}

func (s *AgentStore) AddAgent(agent domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents = append(s.agents, agent)
}

// DeleteAgent drops the agent from the list and from the selection.
func (s *AgentStore) DeleteAgent(agent domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents = slices.DeleteFunc(s.agents, func(a domain.Agent) bool { return sameAgent(a, agent) })
	s.selected = slices.DeleteFunc(s.selected, func(a domain.Agent) bool { return sameAgent(a, agent) })
}

func (s *AgentStore) SetSelectedAgents(agents []domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = slices.Clone(agents)
}

func (s *AgentStore) AddSelectedAgent(agent domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = append(s.selected, agent)
}

func (s *AgentStore) RemoveSelectedAgent(agent domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = slices.DeleteFunc(s.selected, func(a domain.Agent) bool { return sameAgent(a, agent) })
}

// SelectedAgents returns the group chat selection in selection order.
func (s *AgentStore) SelectedAgents() []domain.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.selected)
}

func (s *AgentStore) SetSelectedAI(ai string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedAI = ai
}

func (s *AgentStore) SelectedAI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectedAI
}

func (s *AgentStore) SetTalkMore(talkMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.talkMore = talkMore
}

func (s *AgentStore) TalkMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.talkMore
}

func sameAgent(a, b domain.Agent) bool {
	if a.ID != nil && b.ID != nil {
		return *a.ID == *b.ID
	}
	return a.ID == nil && b.ID == nil && a.Name == b.Name
}
