package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	commitMsg    string
	commitAuthor string
)

// commitCmd represents the commit command
var commitCmd = &cobra.Command{
	Use:   "commit [artifact] [file]",
	Short: "Commit a new version of an artifact",
	Long: `Commit file content (or stdin when file is omitted or "-") as the next
version of the artifact. The artifact is created on first commit.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		artifact := args[0]

		var data []byte
		var err error
		if len(args) == 2 && args[1] != "-" {
			data, err = os.ReadFile(args[1])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fatal("Failed to read content", err)
		}

		project := openProject()
		defer project.Close()

		author := commitAuthor
		if author == "" {
			author = project.Config.Project.DefaultAuthor
		}

		v, err := project.Tracker.Commit(context.Background(), artifact, string(data), commitMsg, author)
		if err != nil {
			fatal("Failed to commit", err)
		}

		fmt.Printf("[%s v%d] %s\n", artifact, v.Sequence, v.Message)
		fmt.Printf("  fingerprint %s\n", v.Fingerprint.Short())
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringVarP(&commitMsg, "message", "m", "", "Commit message")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "", "Commit author (defaults to config)")
	commitCmd.MarkFlagRequired("message")
}
