package policies

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

func newTestBoardState(t *testing.T, moves ...tictactoe.Position) tictactoe.State {
	t.Helper()
	b, err := tictactoe.NewBoard(3, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	state, _ := b.Reset()
	player := tictactoe.First
	for _, pos := range moves {
		var err error
		state, _, _, _, err = b.Step(player, pos)
		if err != nil {
			t.Fatal(err)
		}
		player = player.Opponent()
	}
	return state
}

func TestZeroEpsilonTrainMatchesEvalGreedy(t *testing.T) {
	config := DefaultQLearningConfig()
	config.Epsilon = 0
	p := NewQLearningPolicy(tictactoe.First, config, rand.New(rand.NewSource(1)))

	state := newTestBoardState(t, tictactoe.Position{Row: 0, Col: 0}, tictactoe.Position{Row: 1, Col: 1})
	p.Table().Set(state.Hash(), "(2,2)", 0.75)

	p.SetMode(Eval)
	evalMove, err := p.Decide(state)
	if err != nil {
		t.Fatal(err)
	}
	p.SetMode(Train)
	for i := 0; i < 20; i++ {
		move, err := p.Decide(state)
		if err != nil {
			t.Fatal(err)
		}
		if move != evalMove {
			t.Fatalf("train decision %v differs from eval greedy %v with epsilon 0", move, evalMove)
		}
	}
	if evalMove != (tictactoe.Position{Row: 2, Col: 2}) {
		t.Errorf("greedy move = %v, want the single positive entry (2,2)", evalMove)
	}
}

func TestGreedyTieBreakIsRowMajor(t *testing.T) {
	p := NewQLearningPolicy(tictactoe.First, DefaultQLearningConfig(), rand.New(rand.NewSource(1)))
	state := newTestBoardState(t)

	// all values at the default, the first empty cell in row-major order wins
	move, err := p.Decide(state)
	if err != nil {
		t.Fatal(err)
	}
	if move != (tictactoe.Position{Row: 0, Col: 0}) {
		t.Errorf("tie-break move = %v, want (0,0)", move)
	}
}

func TestDecideSingleEmptyCell(t *testing.T) {
	state := newTestBoardState(t,
		tictactoe.Position{Row: 0, Col: 0}, tictactoe.Position{Row: 0, Col: 1},
		tictactoe.Position{Row: 0, Col: 2}, tictactoe.Position{Row: 1, Col: 1},
		tictactoe.Position{Row: 1, Col: 0}, tictactoe.Position{Row: 1, Col: 2},
		tictactoe.Position{Row: 2, Col: 1}, tictactoe.Position{Row: 2, Col: 0},
	)
	want := tictactoe.Position{Row: 2, Col: 2}

	source := rand.New(rand.NewSource(7))
	variants := []Policy{
		NewQLearningPolicy(tictactoe.First, DefaultQLearningConfig(), source),
		NewRandomPolicy(tictactoe.First, source),
		NewSoftmaxPolicy(tictactoe.First, nil, source),
		NewNeuralPolicy(tictactoe.First, 3, 3, source),
	}
	for _, p := range variants {
		move, err := p.Decide(state)
		if err != nil {
			t.Fatalf("%T: %v", p, err)
		}
		if move != want {
			t.Errorf("%T chose %v, want the only empty cell %v", p, move, want)
		}
	}
}

func TestDecideFullBoardFails(t *testing.T) {
	state := newTestBoardState(t)
	for i := range state.Cells {
		state.Cells[i] = tictactoe.First
	}
	p := NewRandomPolicy(tictactoe.Second, rand.New(rand.NewSource(1)))
	if _, err := p.Decide(state); err == nil {
		t.Errorf("Decide on a full board must fail")
	}
}

func TestUpdateQArithmetic(t *testing.T) {
	config := QLearningConfig{Alpha: 0.1, Gamma: 0.9}
	p := NewQLearningPolicy(tictactoe.First, config, rand.New(rand.NewSource(1)))
	p.SetMode(Train)

	state := newTestBoardState(t)
	action := tictactoe.Position{Row: 0, Col: 0}
	next := newTestBoardState(t, tictactoe.Position{Row: 0, Col: 0}, tictactoe.Position{Row: 1, Col: 1})

	p.Table().Set(state.Hash(), "(0,0)", 0.5)
	p.Table().Set(next.Hash(), "(2,2)", 0.8)

	if err := p.UpdateQ(state, action, 0, &next); err != nil {
		t.Fatal(err)
	}

	// current + alpha*(reward + gamma*maxNext - current)
	want := 0.5 + 0.1*(0+0.9*0.8-0.5)
	got := p.Table().Get(state.Hash(), "(0,0)")
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("updated value = %v, want %v", got, want)
	}
}

func TestUpdateQTerminal(t *testing.T) {
	config := QLearningConfig{Alpha: 0.5, Gamma: 0.9}
	p := NewQLearningPolicy(tictactoe.First, config, rand.New(rand.NewSource(1)))
	p.SetMode(Train)

	state := newTestBoardState(t)
	action := tictactoe.Position{Row: 1, Col: 1}
	p.Table().Set(state.Hash(), "(1,1)", 0.2)

	// terminal transition, no bootstrap term
	if err := p.UpdateQ(state, action, 1, nil); err != nil {
		t.Fatal(err)
	}
	want := 0.2 + 0.5*(1-0.2)
	if got := p.Table().Get(state.Hash(), "(1,1)"); math.Abs(got-want) > 1e-12 {
		t.Errorf("terminal update = %v, want %v", got, want)
	}
}

func TestUpdateQRequiresTrainMode(t *testing.T) {
	p := NewQLearningPolicy(tictactoe.First, DefaultQLearningConfig(), rand.New(rand.NewSource(1)))
	state := newTestBoardState(t)
	if err := p.UpdateQ(state, tictactoe.Position{}, 0, nil); err == nil {
		t.Errorf("UpdateQ in eval mode must fail")
	}
}
