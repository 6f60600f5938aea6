package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// RandomPolicy chooses uniformly among the empty cells. It serves as the
// evaluation baseline for the learning policies.
type RandomPolicy struct {
	marker tictactoe.Cell
	rand   *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(marker tictactoe.Cell, source *rand.Rand) *RandomPolicy {
	checkMarker(marker)
	if source == nil {
		source = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &RandomPolicy{marker: marker, rand: source}
}

func (r *RandomPolicy) Marker() tictactoe.Cell {
	return r.marker
}

func (r *RandomPolicy) Decide(state tictactoe.State) (tictactoe.Position, error) {
	empty := state.EmptyCells()
	if len(empty) == 0 {
		return tictactoe.Position{}, errNoEmptyCell
	}
	return empty[r.rand.Intn(len(empty))], nil
}
