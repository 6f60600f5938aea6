package policies

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// SoftmaxPolicy samples moves with Boltzmann weights over the values of a
// table, usually one produced by a trained QLearningPolicy. It gives a
// stochastic opponent for benchmarks that still prefers strong moves.
type SoftmaxPolicy struct {
	marker tictactoe.Cell
	table  *QTable
	rand   *rand.Rand
}

var _ Policy = &SoftmaxPolicy{}

func NewSoftmaxPolicy(marker tictactoe.Cell, table *QTable, source *rand.Rand) *SoftmaxPolicy {
	checkMarker(marker)
	if table == nil {
		table = NewQTable(0)
	}
	if source == nil {
		source = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &SoftmaxPolicy{marker: marker, table: table, rand: source}
}

func (s *SoftmaxPolicy) Marker() tictactoe.Cell {
	return s.marker
}

func (s *SoftmaxPolicy) Decide(state tictactoe.State) (tictactoe.Position, error) {
	empty := state.EmptyCells()
	if len(empty) == 0 {
		return tictactoe.Position{}, errNoEmptyCell
	}

	stateKey := state.Hash()
	sum := 0.0
	weights := make([]float64, len(empty))
	for i, pos := range empty {
		exp := math.Exp(s.table.Get(stateKey, actionKey(pos)))
		weights[i] = exp
		sum += exp
	}
	for i := range weights {
		weights[i] /= sum
	}

	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		// degenerate weights, fall back to uniform
		i = s.rand.Intn(len(empty))
	}
	return empty[i], nil
}
