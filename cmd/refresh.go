package cmd

import (
	"context"
	"fmt"
	"log"

	"MagicLists/config"
	"MagicLists/core/ai"
	"MagicLists/core/curator"
	"MagicLists/core/navidrome"
	"MagicLists/db"
	"MagicLists/logger"
	"MagicLists/repository"
	"MagicLists/scheduler"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one pass of scheduled playlist refreshes",
	Long:  `Regenerate every scheduled playlist whose refresh time has passed, then exit. Useful from cron instead of the in-process scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseGormDB()

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

		sched := scheduler.New(cur, navClient, repository.NewGormScheduleRepository(), cfg.ScheduleInterval, cfg.RediscoverTracks)
		if err := sched.RefreshDue(context.Background()); err != nil {
			log.Fatalf("Refresh pass failed: %v", err)
		}
		fmt.Println("Refresh pass complete")
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
