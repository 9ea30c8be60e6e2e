package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	stashMsg    string
	stashAuthor string
)

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Shelve prompt content without committing",
	Long: `The stash is a per-artifact stack of uncommitted content. Push shelves
content, pop restores the most recent entry and removes it.`,
}

var stashPushCmd = &cobra.Command{
	Use:   "push [artifact] [file]",
	Short: "Shelve content on the artifact's stash",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
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

		author := stashAuthor
		if author == "" {
			author = project.Config.Project.DefaultAuthor
		}

		entry, err := project.Stash.Push(context.Background(), args[0], string(data), stashMsg, author)
		if err != nil {
			fatal("Failed to stash", err)
		}
		fmt.Printf("Stashed %s@{0} (%s)\n", args[0], entry.Fingerprint.Short())
	},
}

var stashPopCmd = &cobra.Command{
	Use:   "pop [artifact]",
	Short: "Restore and drop the most recent stash entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		entry, content, err := project.Stash.Pop(context.Background(), args[0])
		if err != nil {
			fatal("Failed to pop stash", err)
		}
		fmt.Fprintf(os.Stderr, "Popped %s@{0}: %s\n", args[0], entry.Message)
		fmt.Print(content)
	},
}

var stashListCmd = &cobra.Command{
	Use:   "list [artifact]",
	Short: "List the artifact's stash entries",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		entries, err := project.Stash.List(args[0])
		if err != nil {
			fatal("Failed to list stash", err)
		}
		for _, e := range entries {
			fmt.Printf("%s@{%d}  %s  %s\n", args[0], e.Index, e.CreatedAt.Format("2006-01-02 15:04"), e.Message)
		}
	},
}

var stashDropCmd = &cobra.Command{
	Use:   "drop [artifact] [index]",
	Short: "Discard a stash entry",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid index", err)
		}

		project := openProject()
		defer project.Close()

		if err := project.Stash.Drop(args[0], index); err != nil {
			fatal("Failed to drop stash entry", err)
		}
		fmt.Printf("Dropped %s@{%d}\n", args[0], index)
	},
}

func init() {
	rootCmd.AddCommand(stashCmd)
	stashCmd.AddCommand(stashPushCmd, stashPopCmd, stashListCmd, stashDropCmd)

	stashPushCmd.Flags().StringVarP(&stashMsg, "message", "m", "", "Stash message")
	stashPushCmd.Flags().StringVar(&stashAuthor, "author", "", "Stash author (defaults to config)")
}
