package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/trainer"
)

// warmUpNeural trains the value network from games against a random
// opponent, observing the grids the network's side produced together with
// the final outcome.
func warmUpNeural(board *tictactoe.Board, neural *policies.NeuralPolicy, games int) error {
	opponent := policies.NewRandomPolicy(neural.Marker().Opponent(), randSource(11))
	for i := 0; i < games; i++ {
		state, info := board.Reset()
		var reward tictactoe.RewardPair
		terminated := false
		afterstates := make([]tictactoe.State, 0, board.Rows()*board.Cols())

		for !terminated {
			neuralTurn := info.OnMove == neural.Marker()
			mover := policies.Policy(opponent)
			if neuralTurn {
				mover = neural
			}
			action, err := mover.Decide(state)
			if err != nil {
				return err
			}
			state, reward, terminated, info, err = board.Step(mover.Marker(), action)
			if err != nil {
				return err
			}
			if neuralTurn {
				afterstates = append(afterstates, state)
			}
		}

		outcome := reward.First
		if neural.Marker() == tictactoe.Second {
			outcome = reward.Second
		}
		neural.Observe(afterstates, outcome)
		if (i+1)%200 == 0 {
			neural.Fit(0.05, 1)
		}
	}
	neural.Fit(0.05, 1)
	return nil
}

func Bench(games, warmupGames int) error {
	board, err := newBoard()
	if err != nil {
		return err
	}

	agent1, err := loadAgent(tictactoe.First)
	if err != nil {
		return err
	}
	agent2, err := loadAgent(tictactoe.Second)
	if err != nil {
		return err
	}

	neural := policies.NewNeuralPolicy(tictactoe.Second, board.Rows(), board.Cols(), randSource(5))
	if err := warmUpNeural(board, neural, warmupGames); err != nil {
		return fmt.Errorf("training neural baseline: %w", err)
	}

	opponents := []struct {
		name   string
		policy policies.Policy
	}{
		{"RandomPolicy", policies.NewRandomPolicy(tictactoe.Second, randSource(3))},
		{"SoftmaxPolicy", policies.NewSoftmaxPolicy(tictactoe.Second, agent2.Table(), randSource(4))},
		{"NeuralPolicy", neural},
	}

	fmt.Printf("QLearningPolicy as first player, %d games per opponent\n", games)
	for _, opp := range opponents {
		wins, losses, draws := 0, 0, 0
		for i := 0; i < games; i++ {
			outcome, err := trainer.RunEvalGame(board, agent1, opp.policy)
			if err != nil {
				return fmt.Errorf("bench game against %s: %w", opp.name, err)
			}
			switch outcome {
			case 1:
				wins++
			case -1:
				losses++
			default:
				draws++
			}
		}
		fmt.Printf("    vs %-14s win: %4d lose: %4d draw: %4d\n", opp.name, wins, losses, draws)
	}
	return nil
}

func BenchCommand() *cobra.Command {
	var games int
	var warmupGames int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the trained agent against baseline opponents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Bench(games, warmupGames)
		},
	}
	cmd.PersistentFlags().IntVarP(&games, "num", "n", 1000, "Games per opponent")
	cmd.PersistentFlags().IntVar(&warmupGames, "warmup", 2000, "Games used to fit the neural baseline")
	return cmd
}
