// migrate brings a Clutch Picks database up to date outside of the server.
//
// Usage: go run ./cmd/migrate -config=config.yaml [-execute]
//
// Without -execute the tool only reports what the data migrations would
// change: legacy bet statuses, duplicate pick purchases and a legacy
// followers table to backfill from. With -execute it migrates the schema,
// applies the data migrations and optionally records a leaderboard snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/logger"
	"github.com/codyseavey/clutch-picks/backend/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config (optional)")
	execute := flag.Bool("execute", false, "Apply migrations (default is a dry run)")
	snapshot := flag.Bool("snapshot", false, "Record today's leaderboard after migrating (requires -execute)")
	flag.Parse()

	cfg, err := config.Load(*configPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	report, err := database.Pending(db)
	if err != nil {
		log.Fatal("inspect database", zap.Error(err))
	}

	fmt.Println("=== Pending data migrations ===")
	fmt.Printf("Legacy bet statuses:   %d\n", report.LegacyBetStatuses)
	fmt.Printf("Unknown bet statuses:  %d (left unchanged)\n", report.UnknownBetStatuses)
	fmt.Printf("Non-UTC timestamps:    %d\n", report.NonUTCTimestamps)
	fmt.Printf("Duplicate purchases:   %d\n", report.DuplicatePurchases)
	fmt.Printf("Followers to backfill: %v\n", report.FollowersTable)

	if !*execute {
		fmt.Println("\nDry run. Re-run with -execute to apply.")
		return
	}

	if err := database.Migrate(db, log); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	fmt.Println("\nMigrations applied.")

	if *snapshot {
		leaderboard := services.NewLeaderboardService(database.NewStore(db), db, cfg.Leaderboard.Schedule, log)
		count, err := leaderboard.TakeSnapshot(context.Background())
		if err != nil {
			log.Fatal("leaderboard snapshot", zap.Error(err))
		}
		fmt.Printf("Leaderboard snapshot recorded for %d users.\n", count)
	}
}
