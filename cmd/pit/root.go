package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/itisrmk/pit"
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pit",
	Short: "Version control for prompts",
	Long: `Pit tracks prompts as artifacts with a linear, append-only version history.
It layers prompt-aware tooling on top: semantic diffs, history queries,
regression bisection and a safety scanner.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// openProject opens the project in the current directory, failing the
// command if there is none.
func openProject() *pit.Project {
	cwd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if !pit.IsInitialized(cwd) {
		fatal("Not a pit project", fmt.Errorf("no %s directory in %s (run 'pit init')", pit.SystemDir, cwd))
	}

	project, err := pit.Open(cwd, pit.WithLogger(slog.Default()))
	if err != nil {
		fatal("Failed to open project", err)
	}
	return project
}
