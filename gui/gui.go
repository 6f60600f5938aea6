// Package gui renders the board in a desktop window. The human clicks a
// cell, the agent replies immediately; R starts a new game.
package gui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

const (
	cellSize  = 160
	lineWidth = 4
	margin    = 20
)

var (
	colorBackground = color.RGBA{0xf5, 0xf0, 0xe6, 0xff}
	colorGrid       = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorCross      = color.RGBA{0xc0, 0x39, 0x2b, 0xff}
	colorNought     = color.RGBA{0x29, 0x80, 0xb9, 0xff}
	colorWin        = color.RGBA{0xf9, 0xe7, 0x9f, 0xff}
)

// Game is the ebiten front-end around one board and one agent.
type Game struct {
	board *tictactoe.Board
	agent policies.Policy
	human tictactoe.Cell
	state tictactoe.State
	info  tictactoe.Info
	over  bool
	// terminal outcome from the first seat's perspective
	outcome int
}

func NewGame(board *tictactoe.Board, agent policies.Policy, human tictactoe.Cell) *Game {
	g := &Game{board: board, agent: agent, human: human}
	g.restart()
	return g
}

func (g *Game) restart() {
	g.state, g.info = g.board.Reset()
	g.over = false
	g.outcome = 0
	g.agentPly()
	g.updateTitle()
}

func (g *Game) agentPly() {
	if g.over || g.info.OnMove == g.human {
		return
	}
	action, err := g.agent.Decide(g.state)
	if err != nil {
		return
	}
	g.applyMove(g.agent.Marker(), action)
}

func (g *Game) applyMove(player tictactoe.Cell, pos tictactoe.Position) {
	state, reward, terminated, info, err := g.board.Step(player, pos)
	if err != nil {
		return
	}
	g.state, g.info, g.over = state, info, terminated
	if terminated {
		g.outcome = int(reward.First)
	}
}

func (g *Game) updateTitle() {
	title := "TicTacToe!"
	if g.over {
		switch {
		case g.outcome == 0:
			title = "TicTacToe! Draw - press R"
		case g.outcome == int(g.human):
			title = "TicTacToe! You win - press R"
		default:
			title = "TicTacToe! You lose - press R"
		}
	}
	ebiten.SetWindowTitle(title)
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
		return nil
	}
	if g.over || g.info.OnMove != g.human {
		return nil
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		col := (x - margin) / cellSize
		row := (y - margin) / cellSize
		if x < margin || y < margin || row >= g.board.Rows() || col >= g.board.Cols() {
			return nil
		}
		if g.state.At(row, col) != tictactoe.Empty {
			return nil
		}
		g.applyMove(g.human, tictactoe.Position{Row: row, Col: col})
		g.agentPly()
		g.updateTitle()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	// winning line highlight behind everything else
	for _, p := range g.info.WinningCells {
		vector.DrawFilledRect(screen,
			float32(margin+p.Col*cellSize), float32(margin+p.Row*cellSize),
			cellSize, cellSize, colorWin, true)
	}

	rows, cols := g.board.Rows(), g.board.Cols()
	w := float32(cols * cellSize)
	h := float32(rows * cellSize)
	for r := 0; r <= rows; r++ {
		y := float32(margin + r*cellSize)
		vector.StrokeLine(screen, margin, y, margin+w, y, lineWidth, colorGrid, true)
	}
	for c := 0; c <= cols; c++ {
		x := float32(margin + c*cellSize)
		vector.StrokeLine(screen, x, margin, x, margin+h, lineWidth, colorGrid, true)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cx := float32(margin + c*cellSize + cellSize/2)
			cy := float32(margin + r*cellSize + cellSize/2)
			const reach = cellSize/2 - 30
			switch g.state.At(r, c) {
			case tictactoe.First:
				vector.StrokeLine(screen, cx-reach, cy-reach, cx+reach, cy+reach, lineWidth+2, colorCross, true)
				vector.StrokeLine(screen, cx-reach, cy+reach, cx+reach, cy-reach, lineWidth+2, colorCross, true)
			case tictactoe.Second:
				vector.StrokeCircle(screen, cx, cy, reach, lineWidth+2, colorNought, true)
			}
		}
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.board.Cols()*cellSize + 2*margin, g.board.Rows()*cellSize + 2*margin
}

// Run opens the window and blocks until it is closed.
func Run(board *tictactoe.Board, agent policies.Policy, human tictactoe.Cell) error {
	game := NewGame(board, agent, human)
	ebiten.SetWindowSize(board.Cols()*cellSize+2*margin, board.Rows()*cellSize+2*margin)
	ebiten.SetWindowTitle("TicTacToe!")
	return ebiten.RunGame(game)
}
