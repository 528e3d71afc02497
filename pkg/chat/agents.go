package chat

import (
	"math/rand/v2"

	"github.com/dskvich/memi-chat/pkg/domain"
)

// RandomSource picks uniformly in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ExpandAgents builds the turn list of a group chat exchange. Every agent
// keeps its position and is followed by zero or one duplicate, chosen
// uniformly. Duplicates are marked as consecutive replies.
func ExpandAgents(agents []domain.Agent, rnd RandomSource) []domain.Agent {
	turns := make([]domain.Agent, 0, 2*len(agents))
	for _, agent := range agents {
		agent.ConsecutiveReply = false
		turns = append(turns, agent)

		if rnd.IntN(2) == 1 {
			dup := agent
			dup.ConsecutiveReply = true
			turns = append(turns, dup)
		}
	}
	return turns
}

// TypingLabel is the typing indicator shown while agent composes its turn.
func TypingLabel(agent domain.Agent) string {
	if agent.Name == domain.DefaultAgentName {
		return domain.TypingSmile
	}
	return agent.Name + " is typing..."
}
