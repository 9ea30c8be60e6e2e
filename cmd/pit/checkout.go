package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	checkoutOutput string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout [artifact] [sequence]",
	Short: "Move HEAD to a version",
	Long: `Move the artifact's HEAD pointer to the given sequence. History is not
mutated. With --output, the version's content is also written to a file.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid sequence", err)
		}

		project := openProject()
		defer project.Close()

		ctx := context.Background()
		v, err := project.Tracker.Checkout(ctx, args[0], seq)
		if err != nil {
			fatal("Failed to checkout", err)
		}

		if checkoutOutput != "" {
			content, err := project.Tracker.Content(ctx, args[0], seq)
			if err != nil {
				fatal("Failed to read version", err)
			}
			if err := os.WriteFile(checkoutOutput, []byte(content), 0644); err != nil {
				fatal("Failed to write file", err)
			}
		}

		fmt.Printf("HEAD is now at v%d (%s)\n", v.Sequence, v.Fingerprint.Short())
	},
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
	checkoutCmd.Flags().StringVarP(&checkoutOutput, "output", "o", "", "Also write the version's content to a file")
}
