package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [artifact] [sequence]",
	Short: "Print the content of a version",
	Long:  `Print the raw content of a version to stdout. Omitting the sequence shows HEAD.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		ctx := context.Background()
		seq := 0
		if len(args) == 2 {
			var err error
			seq, err = strconv.Atoi(args[1])
			if err != nil {
				fatal("Invalid sequence", err)
			}
		} else {
			a, err := project.Tracker.Artifact(ctx, args[0])
			if err != nil {
				fatal("Unknown artifact", err)
			}
			seq = a.Head
		}

		content, err := project.Tracker.Content(ctx, args[0], seq)
		if err != nil {
			fatal("Failed to read version", err)
		}
		fmt.Print(content)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
