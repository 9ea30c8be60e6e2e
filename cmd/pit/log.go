package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/itisrmk/pit/pkg/core"
	"github.com/itisrmk/pit/pkg/query"
	"github.com/spf13/cobra"
)

var (
	logFilter string
	logJSON   bool
	logLimit  int
)

var logCmd = &cobra.Command{
	Use:   "log [artifact]",
	Short: "Show the version history of an artifact",
	Long: `Show versions newest-first. With --filter, only versions matching the
query expression are shown, e.g.:

  pit log summarizer -f "success_rate > 0.9 AND tags contains 'production'"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var filter query.Expr
		if logFilter != "" {
			parsed, err := query.Parse(logFilter)
			if err != nil {
				fatal("Invalid filter", err)
			}
			filter = parsed
		}

		project := openProject()
		defer project.Close()

		seq, err := project.Tracker.Log(context.Background(), args[0], filter)
		if err != nil {
			fatal("Failed to read history", err)
		}

		var matched []core.Version
		for v, err := range seq {
			if err != nil {
				fatal("Failed to read history", err)
			}
			matched = append(matched, v)
		}

		// Display newest-first.
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
		if logLimit > 0 && len(matched) > logLimit {
			matched = matched[:logLimit]
		}

		if logJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(matched); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, v := range matched {
			fmt.Printf("v%d  %s  %s\n", v.Sequence, v.Fingerprint.Short(), v.CreatedAt.Format("2006-01-02 15:04"))
			if v.Author != "" {
				fmt.Printf("    author: %s\n", v.Author)
			}
			if len(v.Tags) > 0 {
				fmt.Printf("    tags: %s\n", strings.Join(v.Tags, ", "))
			}
			for name, value := range v.Metrics {
				fmt.Printf("    %s: %g\n", name, value)
			}
			if v.Message != "" {
				fmt.Printf("    %s\n", v.Message)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringVarP(&logFilter, "filter", "f", "", "Query expression to filter versions")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Output in JSON format")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "Limit the number of versions shown")
}
