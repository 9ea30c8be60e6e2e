package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff [artifact] [sequence A] [sequence B]",
	Short: "Show the semantic diff between two versions",
	Long: `Compare two versions and report the changes grouped by category:
tone, constraints, examples, structure, variables and context.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		seqA, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid sequence", err)
		}
		seqB, err := strconv.Atoi(args[2])
		if err != nil {
			fatal("Invalid sequence", err)
		}

		project := openProject()
		defer project.Close()

		diff, err := project.Tracker.Diff(context.Background(), args[0], seqA, seqB)
		if err != nil {
			fatal("Failed to diff", err)
		}

		if diffJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(diff); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		if diff.Empty() {
			fmt.Printf("No semantic changes between v%d and v%d\n", seqA, seqB)
			return
		}
		for _, entry := range diff.Entries {
			fmt.Printf("%-12s %.0f%%  %s\n", entry.Category, entry.Magnitude*100, entry.Description)
			for _, span := range entry.Removed {
				fmt.Printf("  - %s\n", strings.TrimRight(span, "\n"))
			}
			for _, span := range entry.Added {
				fmt.Printf("  + %s\n", strings.TrimRight(span, "\n"))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output in JSON format")
}
