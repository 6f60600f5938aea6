package tictactoe

import (
	"fmt"
	"sort"
)

// Cell is the content of a single board cell. First and Second double as
// player identifiers and are chosen so that a reward for the first player
// is the negation of the reward for the second.
type Cell int8

const (
	Empty  Cell = 0
	First  Cell = 1
	Second Cell = -1
)

// Mark returns the rendering of the cell content.
func (c Cell) Mark() string {
	switch c {
	case First:
		return "X"
	case Second:
		return "O"
	}
	return " "
}

// Opponent returns the other player. Empty maps to itself.
func (c Cell) Opponent() Cell {
	return -c
}

func (c Cell) String() string {
	switch c {
	case First:
		return "player1"
	case Second:
		return "player2"
	}
	return "empty"
}

// Position is a cell coordinate, zero based, row first.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// State is a copy of the board grid handed out to callers. Mutating a
// State never affects the board that produced it.
type State struct {
	Rows  int
	Cols  int
	Cells []Cell
}

// At returns the content of the cell at (row, col).
func (s State) At(row, col int) Cell {
	return s.Cells[row*s.Cols+col]
}

// Hash returns a canonical fixed-width encoding of the grid, one byte per
// cell. Equal grids produce equal strings, unequal grids of the same size
// produce unequal strings.
func (s State) Hash() string {
	buf := make([]byte, len(s.Cells))
	for i, c := range s.Cells {
		switch c {
		case First:
			buf[i] = 'X'
		case Second:
			buf[i] = 'O'
		default:
			buf[i] = '.'
		}
	}
	return string(buf)
}

// EmptyCells lists the unoccupied positions in row-major order.
func (s State) EmptyCells() []Position {
	empty := make([]Position, 0, len(s.Cells))
	for i, c := range s.Cells {
		if c == Empty {
			empty = append(empty, Position{Row: i / s.Cols, Col: i % s.Cols})
		}
	}
	return empty
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	cells := make([]Cell, len(s.Cells))
	copy(cells, s.Cells)
	return State{Rows: s.Rows, Cols: s.Cols, Cells: cells}
}

// Info carries the turn and win metadata returned alongside a state.
// WinningCells is nil unless a player has completed a line.
type Info struct {
	OnMove       Cell
	WinningCells []Position
}

// RewardPair is the zero-sum reward of a step, Second == -First.
type RewardPair struct {
	First  float64
	Second float64
}

// Board owns the grid, the turn order and terminal detection. All state
// handed out is copied, so only Reset and Step mutate it.
type Board struct {
	rows       int
	cols       int
	winLen     int
	cells      []Cell
	counter    int
	onMove     Cell
	terminated bool
}

// NewBoard creates a rows x cols board. winLen <= 0 defaults to
// min(rows, cols).
func NewBoard(rows, cols, winLen int) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid board size %dx%d", rows, cols)
	}
	if winLen <= 0 {
		winLen = rows
		if cols < rows {
			winLen = cols
		}
	}
	if winLen > rows && winLen > cols {
		return nil, fmt.Errorf("win length %d does not fit on a %dx%d board", winLen, rows, cols)
	}
	b := &Board{
		rows:   rows,
		cols:   cols,
		winLen: winLen,
		cells:  make([]Cell, rows*cols),
		onMove: First,
	}
	return b, nil
}

func (b *Board) Rows() int        { return b.rows }
func (b *Board) Cols() int        { return b.cols }
func (b *Board) WinLen() int      { return b.winLen }
func (b *Board) Counter() int     { return b.counter }
func (b *Board) OnMove() Cell     { return b.onMove }
func (b *Board) Terminated() bool { return b.terminated }

// State returns a copy of the current grid.
func (b *Board) State() State {
	cells := make([]Cell, len(b.cells))
	copy(cells, b.cells)
	return State{Rows: b.rows, Cols: b.cols, Cells: cells}
}

// Reset clears the grid and hands the move to the first player.
func (b *Board) Reset() (State, Info) {
	for i := range b.cells {
		b.cells[i] = Empty
	}
	b.counter = 0
	b.onMove = First
	b.terminated = false
	return b.State(), Info{OnMove: b.onMove}
}

// Step places player's marker at pos. Wrong turn, occupied or out of range
// positions and moves after the game ended are precondition violations and
// returned as errors; the board is left untouched in those cases.
func (b *Board) Step(player Cell, pos Position) (State, RewardPair, bool, Info, error) {
	if b.terminated {
		return State{}, RewardPair{}, true, Info{}, fmt.Errorf("step on a terminated game")
	}
	if player != First && player != Second {
		return State{}, RewardPair{}, false, Info{}, fmt.Errorf("invalid player %d", player)
	}
	if player != b.onMove {
		return State{}, RewardPair{}, false, Info{}, fmt.Errorf("not %s's turn", player)
	}
	if pos.Row < 0 || pos.Row >= b.rows || pos.Col < 0 || pos.Col >= b.cols {
		return State{}, RewardPair{}, false, Info{}, fmt.Errorf("position %s out of range", pos)
	}
	idx := pos.Row*b.cols + pos.Col
	if b.cells[idx] != Empty {
		return State{}, RewardPair{}, false, Info{}, fmt.Errorf("position %s already occupied", pos)
	}

	b.cells[idx] = player
	b.counter++

	winner, terminated, coords := b.checkBoard()
	reward := RewardPair{First: float64(winner), Second: -float64(winner)}

	b.onMove = player.Opponent()
	b.terminated = terminated

	info := Info{OnMove: b.onMove, WinningCells: coords}
	return b.State(), reward, terminated, info, nil
}

// line scan orientations: horizontal, vertical, diagonal, anti-diagonal
var orientations = []struct{ dr, dc int }{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// checkBoard scans every placement of a winLen window in all four
// orientations over the whole grid. It panics if both players hold a
// complete line at once; the engine forbids the move sequences that could
// produce such a grid, so hitting it means the engine itself is broken.
func (b *Board) checkBoard() (Cell, bool, []Position) {
	p1Cells := make(map[Position]bool)
	p2Cells := make(map[Position]bool)

	for _, o := range orientations {
		for r := 0; r < b.rows; r++ {
			for c := 0; c < b.cols; c++ {
				endR := r + (b.winLen-1)*o.dr
				endC := c + (b.winLen-1)*o.dc
				if endR < 0 || endR >= b.rows || endC < 0 || endC >= b.cols {
					continue
				}
				side := b.cells[r*b.cols+c]
				if side == Empty {
					continue
				}
				complete := true
				for k := 1; k < b.winLen; k++ {
					if b.cells[(r+k*o.dr)*b.cols+(c+k*o.dc)] != side {
						complete = false
						break
					}
				}
				if !complete {
					continue
				}
				target := p1Cells
				if side == Second {
					target = p2Cells
				}
				for k := 0; k < b.winLen; k++ {
					target[Position{Row: r + k*o.dr, Col: c + k*o.dc}] = true
				}
			}
		}
	}

	if len(p1Cells) > 0 && len(p2Cells) > 0 {
		panic("tictactoe: both players have a winning line")
	}

	winner := Empty
	var winCells map[Position]bool
	switch {
	case len(p1Cells) > 0:
		winner, winCells = First, p1Cells
	case len(p2Cells) > 0:
		winner, winCells = Second, p2Cells
	}

	terminated := winner != Empty || b.counter == b.rows*b.cols

	if winCells == nil {
		return winner, terminated, nil
	}
	coords := make([]Position, 0, len(winCells))
	for p := range winCells {
		coords = append(coords, p)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return winner, terminated, coords
}
