package policies

import (
	"fmt"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// Policy decides the next move for one side of the board.
type Policy interface {
	// Marker identifies the side this policy plays.
	Marker() tictactoe.Cell
	// Decide returns a move among the empty cells of state. Calling it on
	// a state without empty cells is a caller error.
	Decide(state tictactoe.State) (tictactoe.Position, error)
}

// Mode switches a learning policy between exploration and exploitation.
type Mode int

const (
	Eval Mode = iota
	Train
)

func (m Mode) String() string {
	if m == Train {
		return "train"
	}
	return "eval"
}

var errNoEmptyCell = fmt.Errorf("no empty cell to place a marker")

func checkMarker(marker tictactoe.Cell) {
	if marker != tictactoe.First && marker != tictactoe.Second {
		panic("policies: marker must be First or Second")
	}
}

// actionKey is the table key of a move.
func actionKey(pos tictactoe.Position) string {
	return pos.String()
}
