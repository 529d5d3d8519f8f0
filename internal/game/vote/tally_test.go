package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	t.Parallel()

	counts := Tally(Round{"A": "B", "C": "B", "D": "E"})
	assert.Equal(t, map[string]int{"B": 2, "E": 1}, counts)
	assert.Empty(t, Tally(Round{}))
}

func TestLeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		counts map[string]int
		want   string
		found  bool
	}{
		{"strict plurality", map[string]int{"B": 2, "E": 1}, "B", true},
		{"two way tie", map[string]int{"A": 2, "B": 2}, "", false},
		{"three way tie", map[string]int{"A": 1, "B": 1, "C": 1}, "", false},
		{"tie below the max", map[string]int{"A": 2, "B": 2, "C": 3}, "C", true},
		{"tie at the max after a lower leader", map[string]int{"A": 1, "B": 2, "C": 2}, "", false},
		{"single target", map[string]int{"Z": 4}, "Z", true},
		{"no votes", map[string]int{}, "", false},
		{"empty identity leads", map[string]int{"": 2, "B": 1}, "", true},
		{"empty identity ties", map[string]int{"": 2, "B": 2}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := Leader(tt.counts)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}
