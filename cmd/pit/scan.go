package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/itisrmk/pit/pkg/scan"
	"github.com/spf13/cobra"
)

var (
	scanMin      string
	scanArtifact string
	scanJSON     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan prompt content for safety issues",
	Long: `Scan content for prompt injection, credential and PII exposure, data
exfiltration and unsafe output patterns. Reads a file, stdin, or a
tracked version with --artifact ARTIFACT [sequence].

Exits non-zero when findings are reported.`,
	Args: cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		var content string
		if scanArtifact != "" {
			project := openProject()
			defer project.Close()

			ctx := context.Background()
			seq := 0
			if len(args) == 1 {
				var err error
				seq, err = strconv.Atoi(args[0])
				if err != nil {
					fatal("Invalid sequence", err)
				}
			} else {
				a, err := project.Tracker.Artifact(ctx, scanArtifact)
				if err != nil {
					fatal("Unknown artifact", err)
				}
				seq = a.Head
			}
			c, err := project.Tracker.Content(ctx, scanArtifact, seq)
			if err != nil {
				fatal("Failed to read version", err)
			}
			content = c
		} else {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				fatal("Failed to read content", err)
			}
			content = string(data)
		}

		result := scan.New(scan.Severity(scanMin)).Scan(content)

		if scanJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				fatal("Failed to encode JSON", err)
			}
		} else {
			for _, f := range result.Findings {
				fmt.Printf("%-8s line %-4d %-20s %s\n", f.Severity, f.Line, f.Category, f.Message)
				if f.Snippet != "" {
					fmt.Printf("         %s\n", f.Snippet)
				}
			}
			if result.Clean() {
				fmt.Println("No findings.")
			} else {
				fmt.Printf("%d finding(s), risk score %d\n", len(result.Findings), result.RiskScore)
			}
		}

		if !result.Clean() {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanMin, "min", "", "Minimum severity to report (info, low, medium, high, critical)")
	scanCmd.Flags().StringVarP(&scanArtifact, "artifact", "a", "", "Scan a tracked version instead of a file")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output in JSON format")
}
