package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/gui"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

func Gui(policyName string, seat int) error {
	board, err := newBoard()
	if err != nil {
		return err
	}
	human := tictactoe.First
	switch seat {
	case 1:
	case 2:
		human = tictactoe.Second
	default:
		return fmt.Errorf("seat must be 1 or 2")
	}
	opponent, err := buildOpponent(policyName, human.Opponent())
	if err != nil {
		return err
	}
	return gui.Run(board, opponent, human)
}

func GuiCommand() *cobra.Command {
	var policyName string
	var seat int

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Play against the agent in a desktop window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Gui(policyName, seat)
		},
	}
	cmd.PersistentFlags().StringVarP(&policyName, "policy", "p", "qlearning", "Agent policy: qlearning or random")
	cmd.PersistentFlags().IntVar(&seat, "seat", 1, "Your seat, 1 moves first")
	return cmd
}
