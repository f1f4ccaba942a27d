package main

import (
	"os"

	cmd "github.com/mosaicnetworks/geth-runner/cmd/geth-runner/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewRunCmd(),
		cmd.NewTopologyCmd(),
		cmd.NewLogCmd())

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
