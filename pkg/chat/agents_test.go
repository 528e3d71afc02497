package chat

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/memi-chat/pkg/domain"
)

// fixedRand returns its values in order, cycling.
type fixedRand struct {
	values []int
	next   int
}

func (r *fixedRand) IntN(n int) int {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v % n
}

func testAgents(names ...string) []domain.Agent {
	return lo.Map(names, func(name string, i int) domain.Agent {
		id := int64(i + 1)
		return domain.Agent{ID: &id, Name: name}
	})
}

func TestExpandAgents(t *testing.T) {
	tests := map[string]struct {
		rnd       []int
		wantNames []string
		wantDups  []bool
	}{
		"no duplicates": {
			rnd:       []int{0},
			wantNames: []string{"Memi", "Bob", "Ann"},
			wantDups:  []bool{false, false, false},
		},
		"all duplicated": {
			rnd:       []int{1},
			wantNames: []string{"Memi", "Memi", "Bob", "Bob", "Ann", "Ann"},
			wantDups:  []bool{false, true, false, true, false, true},
		},
		"middle duplicated": {
			rnd:       []int{0, 1, 0},
			wantNames: []string{"Memi", "Bob", "Bob", "Ann"},
			wantDups:  []bool{false, false, true, false},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			turns := ExpandAgents(testAgents("Memi", "Bob", "Ann"), &fixedRand{values: tc.rnd})

			assert.Equal(t, tc.wantNames, lo.Map(turns, func(a domain.Agent, _ int) string { return a.Name }))
			assert.Equal(t, tc.wantDups, lo.Map(turns, func(a domain.Agent, _ int) bool { return a.ConsecutiveReply }))
		})
	}
}

func TestExpandAgentsBounds(t *testing.T) {
	agents := testAgents("Memi", "Bob")

	for range 200 {
		turns := ExpandAgents(agents, globalRand{})
		require.GreaterOrEqual(t, len(turns), 2)
		require.LessOrEqual(t, len(turns), 4)

		originals := lo.Filter(turns, func(a domain.Agent, _ int) bool { return !a.ConsecutiveReply })
		require.Equal(t, []string{"Memi", "Bob"}, lo.Map(originals, func(a domain.Agent, _ int) string { return a.Name }))
		assert.False(t, turns[0].ConsecutiveReply)
		for i := 1; i < len(turns); i++ {
			if turns[i].ConsecutiveReply {
				assert.Equal(t, turns[i-1].Name, turns[i].Name)
				assert.False(t, turns[i-1].ConsecutiveReply)
			}
		}
	}
}

func TestExpandAgentsResetsFlag(t *testing.T) {
	agents := testAgents("Bob")
	agents[0].ConsecutiveReply = true

	turns := ExpandAgents(agents, &fixedRand{values: []int{0}})

	require.Len(t, turns, 1)
	assert.False(t, turns[0].ConsecutiveReply)
}

func TestTypingLabel(t *testing.T) {
	assert.Equal(t, "smile", TypingLabel(domain.Agent{Name: domain.DefaultAgentName}))
	assert.Equal(t, "Bob is typing...", TypingLabel(domain.Agent{Name: "Bob"}))
}
