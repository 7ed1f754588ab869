package cmd

import (
	"context"
	"fmt"
	"log"

	"MagicLists/config"
	"MagicLists/core/ai"
	"MagicLists/core/curator"
	"MagicLists/core/navidrome"
	"MagicLists/logger"

	"github.com/spf13/cobra"
)

var (
	rediscoverTracks  int
	rediscoverNoAI    bool
	rediscoverContext string
)

var rediscoverCmd = &cobra.Command{
	Use:   "rediscover",
	Short: "Preview the Re-Discover Weekly selection",
	Long:  `Generate the Re-Discover Weekly selection from the command line and print it without creating a playlist.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		navClient := navidrome.NewClient(cfg)
		aiProvider, err := ai.NewProvider(cfg)
		if err != nil {
			log.Fatalf("Failed to configure AI provider: %v", err)
		}

		recipes := curator.NewRecipeManager(cfg.RecipesDir)
		cur := curator.NewCurator(navClient, aiProvider, recipes, curator.Defaults{
			AnalysisDays: cfg.AnalysisDays,
			MinGapDays:   cfg.MinGapDays,
			MaxTracks:    cfg.RediscoverTracks,
		})

		tracks, err := cur.GenerateRediscoverWeekly(context.Background(), rediscoverTracks, !rediscoverNoAI, rediscoverContext)
		if err != nil {
			log.Fatalf("Curation failed: %v", err)
		}

		fmt.Printf("Found %d tracks to re-discover:\n\n", len(tracks))
		for i, t := range tracks {
			fmt.Printf("%2d. %s - %s [%s] (plays: %d, last played %d days ago, score %.0f)\n",
				i+1, t.Artist, t.Title, t.Album, t.HistoricalPlays, t.DaysSinceLastPlay, t.Score)
		}
		if len(tracks) > 0 && tracks[0].AIReasoning != "" {
			fmt.Printf("\nReasoning: %s\n", tracks[0].AIReasoning)
		}
	},
}

func init() {
	rootCmd.AddCommand(rediscoverCmd)

	rediscoverCmd.Flags().IntVarP(&rediscoverTracks, "tracks", "n", 0, "number of tracks to select (0 = configured default)")
	rediscoverCmd.Flags().BoolVar(&rediscoverNoAI, "no-ai", false, "skip AI curation and use the algorithmic selection")
	rediscoverCmd.Flags().StringVarP(&rediscoverContext, "context", "c", "", "extra context passed to the AI curator")
}
