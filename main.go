package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set at build time
var (
	version = "dev"
	commit  = "none"
)

// partyrace: a party racing game host. Phones connect over WebSocket as
// controllers; the host maps them to players and runs the race.
func main() {
	rootCmd := &cobra.Command{
		Use:   "partyrace",
		Short: "Party racing game host",
		Long: `partyrace accepts phone controllers over WebSocket, assigns each one a
player number and runs the race simulation at a fixed tick rate.

Settings come from the environment (PARTY_*) and an optional .env file;
flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
