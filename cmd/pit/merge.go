package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/itisrmk/pit/pkg/merge"
	"github.com/spf13/cobra"
)

var mergeJSON bool

var mergeCmd = &cobra.Command{
	Use:   "merge [artifact] [base] [ours] [theirs]",
	Short: "Check whether two divergent versions can be merged",
	Long: `Diff both sides against the shared base version and resolve the result
per category. Categories changed by only one side auto-merge; categories
where both sides only added content auto-merge with both additions;
everything else is reported as a conflict. No merged text is produced.`,
	Args: cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		base, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid base sequence", err)
		}
		ours, err := strconv.Atoi(args[2])
		if err != nil {
			fatal("Invalid ours sequence", err)
		}
		theirs, err := strconv.Atoi(args[3])
		if err != nil {
			fatal("Invalid theirs sequence", err)
		}

		project := openProject()
		defer project.Close()

		ctx := context.Background()
		diffOurs, err := project.Tracker.Diff(ctx, args[0], base, ours)
		if err != nil {
			fatal("Failed to diff ours", err)
		}
		diffTheirs, err := project.Tracker.Diff(ctx, args[0], base, theirs)
		if err != nil {
			fatal("Failed to diff theirs", err)
		}

		result := merge.Resolve(diffOurs, diffTheirs)

		if mergeJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, c := range result.AutoMerged {
			fmt.Printf("auto-merge  %s\n", c)
		}
		for _, c := range result.Conflicts {
			fmt.Printf("CONFLICT    %s\n", c)
		}
		if result.Clean() {
			fmt.Println("Merge is clean.")
			return
		}
		fmt.Printf("%d categor%s in conflict; manual resolution required.\n",
			len(result.Conflicts), pluralY(len(result.Conflicts)))
		os.Exit(1)
	},
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "Output in JSON format")
}
