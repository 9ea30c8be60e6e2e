package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/itisrmk/pit"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a pit project",
	Long:  `Initialize a new pit project in the current directory: creates the .pit directory and a default .pit.yaml configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}

		project, err := pit.Init(cwd, pit.WithLogger(slog.Default()))
		if err != nil {
			fatal("Failed to initialize project", err)
		}
		defer project.Close()

		fmt.Println("Initialized empty pit project in", cwd)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
