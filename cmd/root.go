package cmd

import (
	"fmt"
	"log"
	"os"

	"MagicLists/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "magiclists",
	Short: "MagicLists is an AI playlist curator for Navidrome.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting MagicLists server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
