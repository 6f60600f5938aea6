package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/server"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

func Serve(addr string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// .env can override the listen address for deployments
	if err := godotenv.Load(); err == nil {
		if env := os.Getenv("TICTACTOE_ADDR"); env != "" {
			addr = env
		}
	}

	newAgent := func(marker tictactoe.Cell) policies.Policy {
		agent, err := loadAgent(marker)
		if err != nil {
			log.WithError(err).Warn("falling back to an untrained agent")
			return policies.NewQLearningPolicy(marker, hyperparameters(), randSource(9))
		}
		return agent
	}

	srv := server.New(addr, boardRows, boardCols, winLen, newAgent, log)
	return srv.ListenAndServe()
}

func ServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over an HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(addr)
		},
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	return cmd
}
