package commands

import (
	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/store"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"

	"golang.org/x/exp/rand"
)

var (
	boardRows int
	boardCols int
	winLen    int
	saveDir   string
	seed      uint64

	alpha   float64
	gamma   float64
	epsilon float64
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "tictactoe",
		Short: "Tic-tac-toe with a tabular Q-learning agent",
	}
	rootCommand.PersistentFlags().IntVar(&boardRows, "rows", 3, "Number of board rows")
	rootCommand.PersistentFlags().IntVar(&boardCols, "cols", 3, "Number of board columns")
	rootCommand.PersistentFlags().IntVar(&winLen, "win-len", 3, "Markers in a line needed to win")
	rootCommand.PersistentFlags().StringVarP(&saveDir, "save", "s", "results", "Directory for tables, history and plots")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed, 0 for time-based")
	rootCommand.PersistentFlags().Float64Var(&alpha, "alpha", 0.01, "Learning rate")
	rootCommand.PersistentFlags().Float64Var(&gamma, "gamma", 0.96, "Discount factor")
	rootCommand.PersistentFlags().Float64Var(&epsilon, "epsilon", 0.1, "Exploration rate")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(PlayCommand())
	rootCommand.AddCommand(GuiCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(BenchCommand())
	return rootCommand
}

func newBoard() (*tictactoe.Board, error) {
	return tictactoe.NewBoard(boardRows, boardCols, winLen)
}

func hyperparameters() policies.QLearningConfig {
	return policies.QLearningConfig{
		Alpha:   alpha,
		Gamma:   gamma,
		Epsilon: epsilon,
	}
}

func randSource(offset uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed + offset))
}

// loadAgent builds an eval-mode learning policy for marker, restoring its
// table from the save directory file when one exists.
func loadAgent(marker tictactoe.Cell) (*policies.QLearningPolicy, error) {
	offset := uint64(1)
	if marker == tictactoe.Second {
		offset = 2
	}
	agent := policies.NewQLearningPolicy(marker, hyperparameters(), randSource(offset))
	fileStore, err := store.NewFileStore(saveDir)
	if err != nil {
		return nil, err
	}
	if err := store.LoadIfPresent(fileStore, marker, agent.Table()); err != nil {
		return nil, err
	}
	return agent, nil
}
