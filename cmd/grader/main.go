package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "codegrader",
		Short:         "Rubric-driven autograder for student code submissions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newGradeCommand())
	root.AddCommand(newServeCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
