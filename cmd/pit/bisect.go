package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itisrmk/pit/pkg/bisect"
	"github.com/spf13/cobra"
)

var (
	bisectGood  int
	bisectBad   int
	bisectInput string
)

var bisectCmd = &cobra.Command{
	Use:   "bisect",
	Short: "Binary-search history for the first bad version",
	Long: `Bisect narrows a range of versions to the single first-bad one.
Start a session, then mark the suggested version good or bad until the
session converges.`,
}

var bisectStartCmd = &cobra.Command{
	Use:   "start [artifact]",
	Short: "Start a bisect session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		s, err := project.Bisect.Start(context.Background(), args[0], bisectInput, bisectGood, bisectBad)
		if err != nil {
			fatal("Failed to start bisect", err)
		}
		printSession(s)
	},
}

var bisectGoodCmd = &cobra.Command{
	Use:   "good [sequence]",
	Short: "Mark a version as good",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		markVerdict(cmd, args, bisect.VerdictGood)
	},
}

var bisectBadCmd = &cobra.Command{
	Use:   "bad [sequence]",
	Short: "Mark a version as bad",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		markVerdict(cmd, args, bisect.VerdictBad)
	},
}

var bisectLogCmd = &cobra.Command{
	Use:   "log [artifact]",
	Short: "Show the judgments of the current session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		s, err := project.Bisect.Log(args[0])
		if err != nil {
			fatal("No bisect session", err)
		}
		printSession(s)
		for _, j := range s.Judgments {
			fmt.Printf("  v%-5d %-5s %s\n", j.Sequence, j.Verdict, j.At.Format("2006-01-02 15:04:05"))
		}
	},
}

var bisectResetCmd = &cobra.Command{
	Use:   "reset [artifact]",
	Short: "Abandon the current session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		if err := project.Bisect.Reset(args[0]); err != nil {
			fatal("Failed to reset bisect", err)
		}
		fmt.Println("Bisect session abandoned.")
	},
}

var bisectArtifact string

func markVerdict(cmd *cobra.Command, args []string, verdict bisect.Verdict) {
	if bisectArtifact == "" {
		fatal("Missing artifact", fmt.Errorf("--artifact is required"))
	}
	seq := 0 // judge the suggested version
	if len(args) == 1 {
		var err error
		seq, err = strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid sequence", err)
		}
	}

	project := openProject()
	defer project.Close()

	s, err := project.Bisect.Mark(context.Background(), bisectArtifact, verdict, seq)
	if err != nil {
		fatal("Failed to record verdict", err)
	}
	printSession(s)
}

func printSession(s *bisect.Session) {
	switch s.State {
	case bisect.StateConverged:
		fmt.Printf("Bisect converged: v%d is the first bad version of %s.\n", s.FirstBad, s.Artifact)
	case bisect.StateActive:
		fmt.Printf("Bisecting %s: good v%d, bad v%d. Try v%d (%d candidate(s) left).\n",
			s.Artifact, s.Low, s.High, s.Current, s.Remaining())
	default:
		fmt.Printf("Bisect session for %s is %s.\n", s.Artifact, s.State)
	}
}

func init() {
	rootCmd.AddCommand(bisectCmd)
	bisectCmd.AddCommand(bisectStartCmd, bisectGoodCmd, bisectBadCmd, bisectLogCmd, bisectResetCmd)

	bisectStartCmd.Flags().IntVar(&bisectGood, "good", 0, "Known-good sequence (defaults to the first version)")
	bisectStartCmd.Flags().IntVar(&bisectBad, "bad", 0, "Known-bad sequence (defaults to HEAD)")
	bisectStartCmd.Flags().StringVar(&bisectInput, "input", "", "Failing input reproducing the regression")

	bisectGoodCmd.Flags().StringVarP(&bisectArtifact, "artifact", "a", "", "Artifact under bisection")
	bisectBadCmd.Flags().StringVarP(&bisectArtifact, "artifact", "a", "", "Artifact under bisection")
}
