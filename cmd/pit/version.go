package main

import (
	"fmt"

	"github.com/itisrmk/pit"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pit version %s\n", pit.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
