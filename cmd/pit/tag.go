package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag [artifact] [sequence] [label]",
	Short: "Tag a version with a label",
	Long:  `Attach a label to a version. Labels are not unique across versions; re-tagging the same version with the same label is a no-op.`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid sequence", err)
		}

		project := openProject()
		defer project.Close()

		if err := project.Tracker.Tag(context.Background(), args[0], seq, args[2]); err != nil {
			fatal("Failed to tag", err)
		}
		fmt.Printf("Tagged %s v%d as %q\n", args[0], seq, args[2])
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
}
