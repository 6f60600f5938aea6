package main

import (
	"fmt"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/commands"
)

// main entry point for training, benchmarking and the front-ends
func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
	}
}
