package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b := version.Current()
		printResponse(&b, versionFormat)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(versionCmd)
}
