package cmd

import (
	"MagicLists/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the MagicLists HTTP server",
	Long:  `Start the MagicLists HTTP server serving the playlist curation API and the background refresh scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
