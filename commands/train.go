package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/store"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/trainer"
)

func Train(games, evalEvery, evalGames, plotWindow int, redisAddr string, resume, plots bool) error {
	board, err := newBoard()
	if err != nil {
		return err
	}

	var tableStore store.TableStore
	if redisAddr != "" {
		tableStore = store.NewRedisStore(redisAddr, "tictactoe")
	} else {
		tableStore, err = store.NewFileStore(saveDir)
		if err != nil {
			return err
		}
	}

	p1 := policies.NewQLearningPolicy(tictactoe.First, hyperparameters(), randSource(1))
	p2 := policies.NewQLearningPolicy(tictactoe.Second, hyperparameters(), randSource(2))
	if resume {
		if err := store.LoadIfPresent(tableStore, tictactoe.First, p1.Table()); err != nil {
			return fmt.Errorf("resuming player1 table: %w", err)
		}
		if err := store.LoadIfPresent(tableStore, tictactoe.Second, p2.Table()); err != nil {
			return fmt.Errorf("resuming player2 table: %w", err)
		}
	}

	t := trainer.NewTrainer(trainer.Config{
		Games:     games,
		EvalEvery: evalEvery,
		EvalGames: evalGames,
		SavePath:  saveDir,
		Store:     tableStore,
		Seed:      seed,
	}, board, p1, p2)
	if err := t.Run(); err != nil {
		return err
	}

	if plots {
		if len(t.History1) < plotWindow {
			fmt.Printf("skipping plots, only %d evaluation batches recorded\n", len(t.History1))
			return nil
		}
		if err := trainer.PlotRateHistory(saveDir, "p1", t.History1, plotWindow); err != nil {
			return err
		}
		if err := trainer.PlotRateHistory(saveDir, "p2", t.History2, plotWindow); err != nil {
			return err
		}
	}
	return nil
}

func TrainCommand() *cobra.Command {
	var games int
	var evalEvery int
	var evalGames int
	var plotWindow int
	var redisAddr string
	var resume bool
	var plots bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train both sides by self-play",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Train(games, evalEvery, evalGames, plotWindow, redisAddr, resume, plots)
		},
	}
	cmd.PersistentFlags().IntVarP(&games, "num", "n", 100000, "Number of games for training")
	cmd.PersistentFlags().IntVar(&evalEvery, "eval-every", 1000, "Training games between evaluation batches")
	cmd.PersistentFlags().IntVar(&evalGames, "eval-games", 100, "Games per evaluation batch")
	cmd.PersistentFlags().IntVar(&plotWindow, "plot-window", 10, "Rolling-average window of the rate plots")
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Persist tables to this Redis address instead of files")
	cmd.PersistentFlags().BoolVar(&resume, "resume", true, "Load previously saved tables before training")
	cmd.PersistentFlags().BoolVar(&plots, "plots", false, "Render win/lose/draw rate plots after training")
	return cmd
}
