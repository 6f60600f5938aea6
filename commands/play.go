package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// renderBoard prints the grid the way the terminal front-end shows it,
// cells separated by | and rows by a dashed line.
func renderBoard(state tictactoe.State) {
	splitter := strings.Repeat("---+", state.Cols-1) + "---"
	for r := 0; r < state.Rows; r++ {
		cells := make([]string, state.Cols)
		for c := 0; c < state.Cols; c++ {
			cells[c] = " " + state.At(r, c).Mark() + " "
		}
		fmt.Println(strings.Join(cells, "|"))
		if r < state.Rows-1 {
			fmt.Println(splitter)
		}
	}
	fmt.Println()
}

func readPosition(in *bufio.Reader) (tictactoe.Position, error) {
	fmt.Print(`Please input the coordinates as "row col" to place, starting from 1: `)
	line, err := in.ReadString('\n')
	if err != nil {
		return tictactoe.Position{}, err
	}
	var row, col int
	if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d %d", &row, &col); err != nil {
		return tictactoe.Position{}, fmt.Errorf("expected two numbers: %w", err)
	}
	return tictactoe.Position{Row: row - 1, Col: col - 1}, nil
}

func buildOpponent(policyName string, marker tictactoe.Cell) (policies.Policy, error) {
	switch policyName {
	case "random":
		return policies.NewRandomPolicy(marker, randSource(7)), nil
	case "qlearning":
		return loadAgent(marker)
	}
	return nil, fmt.Errorf("unknown policy %q", policyName)
}

func Play(policyName string) error {
	board, err := newBoard()
	if err != nil {
		return err
	}
	in := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("First player or second? [1/2]: ")
		answer, err := in.ReadString('\n')
		if err != nil {
			return err
		}
		human := tictactoe.First
		switch strings.TrimSpace(answer) {
		case "1":
		case "2":
			human = tictactoe.Second
		default:
			fmt.Println("Invalid selection!")
			continue
		}

		opponent, err := buildOpponent(policyName, human.Opponent())
		if err != nil {
			return err
		}

		state, _ := board.Reset()
		var reward tictactoe.RewardPair
		for !board.Terminated() {
			renderBoard(state)
			if board.OnMove() == opponent.Marker() {
				action, err := opponent.Decide(state)
				if err != nil {
					return err
				}
				state, reward, _, _, err = board.Step(opponent.Marker(), action)
				if err != nil {
					return err
				}
				continue
			}
			action, err := readPosition(in)
			if err != nil {
				fmt.Println(err)
				continue
			}
			next, r, _, _, err := board.Step(human, action)
			if err != nil {
				fmt.Println(err)
				continue
			}
			state, reward = next, r
		}
		renderBoard(state)

		switch {
		case reward.First == float64(human):
			fmt.Println("Congratulation, you win!")
		case reward.First == float64(human.Opponent()):
			fmt.Println("Sorry, you lose!")
		default:
			fmt.Println("Tie!")
		}

		fmt.Print("Play again? [Y/n]: ")
		again, err := in.ReadString('\n')
		if err != nil || strings.ToLower(strings.TrimSpace(again)) == "n" {
			return nil
		}
	}
}

func PlayCommand() *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play against the agent in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Play(policyName)
		},
	}
	cmd.PersistentFlags().StringVarP(&policyName, "policy", "p", "qlearning", "Agent policy: qlearning or random")
	return cmd
}
