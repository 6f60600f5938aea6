package policies

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// QLearningConfig bundles the hyperparameters of a learning policy.
type QLearningConfig struct {
	Alpha      float64 // learning rate
	Gamma      float64 // discount factor
	Epsilon    float64 // exploration rate for epsilon-greedy selection
	DefaultVal float64 // value of unseen (state, action) pairs
}

// DefaultQLearningConfig mirrors the hyperparameters the agent trains
// well with on a 3x3 board.
func DefaultQLearningConfig() QLearningConfig {
	return QLearningConfig{
		Alpha:   0.01,
		Gamma:   0.96,
		Epsilon: 0.1,
	}
}

// QLearningPolicy selects moves with an epsilon-greedy strategy over a
// tabular action-value function. Each instance exclusively owns its table;
// the two sides of a game never share one.
type QLearningPolicy struct {
	marker tictactoe.Cell
	mode   Mode
	config QLearningConfig
	table  *QTable
	rand   *rand.Rand
}

var _ Policy = &QLearningPolicy{}

func NewQLearningPolicy(marker tictactoe.Cell, config QLearningConfig, source *rand.Rand) *QLearningPolicy {
	checkMarker(marker)
	if source == nil {
		source = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &QLearningPolicy{
		marker: marker,
		mode:   Eval,
		config: config,
		table:  NewQTable(config.DefaultVal),
		rand:   source,
	}
}

func (p *QLearningPolicy) Marker() tictactoe.Cell {
	return p.marker
}

func (p *QLearningPolicy) Mode() Mode {
	return p.mode
}

func (p *QLearningPolicy) SetMode(mode Mode) {
	p.mode = mode
}

// Table exposes the policy's value table for persistence and benchmarks.
func (p *QLearningPolicy) Table() *QTable {
	return p.table
}

// Decide picks the greedy move, or explores uniformly with probability
// epsilon while in train mode. Ties between equal values go to the first
// maximizer in row-major order of the empty cells.
func (p *QLearningPolicy) Decide(state tictactoe.State) (tictactoe.Position, error) {
	empty := state.EmptyCells()
	if len(empty) == 0 {
		return tictactoe.Position{}, errNoEmptyCell
	}

	if p.mode == Train && p.rand.Float64() < p.config.Epsilon {
		return empty[p.rand.Intn(len(empty))], nil
	}

	stateKey := state.Hash()
	best := empty[0]
	bestVal := p.table.Get(stateKey, actionKey(best))
	for _, pos := range empty[1:] {
		if val := p.table.Get(stateKey, actionKey(pos)); val > bestVal {
			best = pos
			bestVal = val
		}
	}
	return best, nil
}

// UpdateQ applies a one-step tabular Q-learning update for the transition
// (state, action, reward, nextState). A nil nextState marks a terminal
// transition and skips bootstrapping. Calling it outside train mode is a
// caller error.
func (p *QLearningPolicy) UpdateQ(state tictactoe.State, action tictactoe.Position, reward float64, nextState *tictactoe.State) error {
	if p.mode != Train {
		return fmt.Errorf("q table must not be updated in %s mode", p.mode)
	}

	stateKey := state.Hash()
	aKey := actionKey(action)
	current := p.table.Get(stateKey, aKey)

	maxNext := 0.0
	if nextState != nil {
		nextKey := nextState.Hash()
		nextActions := nextState.EmptyCells()
		keys := make([]string, len(nextActions))
		for i, a := range nextActions {
			keys[i] = actionKey(a)
		}
		if _, val, ok := p.table.MaxAmong(nextKey, keys); ok {
			maxNext = val
		}
	}

	target := reward + p.config.Gamma*maxNext
	p.table.Set(stateKey, aKey, current+p.config.Alpha*(target-current))
	return nil
}
