package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var artifactsJSON bool

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List all tracked artifacts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		artifacts, err := project.Tracker.Artifacts(context.Background())
		if err != nil {
			fatal("Failed to list artifacts", err)
		}

		if artifactsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(artifacts); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, a := range artifacts {
			fmt.Printf("%s  (HEAD v%d)", a.Name, a.Head)
			if a.Description != "" {
				fmt.Printf("  %s", a.Description)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.Flags().BoolVar(&artifactsJSON, "json", false, "Output in JSON format")
}
