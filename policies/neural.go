package policies

import (
	"time"

	"github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
	"golang.org/x/exp/rand"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// NeuralPolicy evaluates afterstates with a small feed-forward value
// network trained from finished-game outcomes. It is an additional
// benchmark opponent, not part of the tabular learner.
type NeuralPolicy struct {
	marker   tictactoe.Cell
	network  *deep.Neural
	examples training.Examples
	rand     *rand.Rand
}

var _ Policy = &NeuralPolicy{}

func NewNeuralPolicy(marker tictactoe.Cell, rows, cols int, source *rand.Rand) *NeuralPolicy {
	checkMarker(marker)
	if source == nil {
		source = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	network := deep.NewNeural(&deep.Config{
		Inputs:     rows * cols,
		Layout:     []int{32, 16, 1},
		Activation: deep.ActivationReLU,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewNormal(0.0, 0.1),
		Bias:       true,
	})
	return &NeuralPolicy{marker: marker, network: network, rand: source}
}

func (n *NeuralPolicy) Marker() tictactoe.Cell {
	return n.marker
}

// features encodes the grid from this side's perspective: own marker 1,
// opponent -1, empty 0.
func (n *NeuralPolicy) features(state tictactoe.State) []float64 {
	out := make([]float64, len(state.Cells))
	for i, c := range state.Cells {
		out[i] = float64(c) * float64(n.marker)
	}
	return out
}

// Decide places the marker on the empty cell whose resulting grid the
// network values highest, first maximizer in row-major order on ties.
func (n *NeuralPolicy) Decide(state tictactoe.State) (tictactoe.Position, error) {
	empty := state.EmptyCells()
	if len(empty) == 0 {
		return tictactoe.Position{}, errNoEmptyCell
	}

	best := empty[0]
	bestVal := 0.0
	for i, pos := range empty {
		after := state.Clone()
		after.Cells[pos.Row*after.Cols+pos.Col] = n.marker
		val := n.network.Predict(n.features(after))[0]
		if i == 0 || val > bestVal {
			best = pos
			bestVal = val
		}
	}
	return best, nil
}

// Observe records every grid this side produced during an episode together
// with the final outcome from this side's perspective (+1 win, -1 loss,
// 0 draw) as a regression target.
func (n *NeuralPolicy) Observe(states []tictactoe.State, outcome float64) {
	for _, s := range states {
		n.examples = append(n.examples, training.Example{
			Input:    n.features(s),
			Response: []float64{outcome},
		})
	}
}

// Fit trains the network on the collected examples and discards them.
func (n *NeuralPolicy) Fit(learningRate float64, iterations int) {
	if len(n.examples) == 0 {
		return
	}
	n.examples.Shuffle()
	trainer := training.NewTrainer(training.NewSGD(learningRate, 0.5, 0.0, false), 0)
	trainer.Train(n.network, n.examples, nil, iterations)
	n.examples = nil
}
