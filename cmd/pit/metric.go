package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var metricCmd = &cobra.Command{
	Use:   "metric [artifact] [sequence] [name] [value]",
	Short: "Record a metric on a version",
	Long: `Attach a named numeric metric (e.g. success_rate, latency_ms) to a
version. Recording the same name again overwrites the previous value.`,
	Args: cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid sequence", err)
		}
		value, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			fatal("Invalid metric value", err)
		}

		project := openProject()
		defer project.Close()

		if err := project.Tracker.RecordMetric(context.Background(), args[0], seq, args[2], value); err != nil {
			fatal("Failed to record metric", err)
		}
		fmt.Printf("Recorded %s=%g on %s v%d\n", args[2], value, args[0], seq)
	},
}

func init() {
	rootCmd.AddCommand(metricCmd)
}
