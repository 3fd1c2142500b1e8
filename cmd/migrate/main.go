// Command migrate applies the database schema. Every statement is
// idempotent, so the command is safe to run on every deploy.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	for _, stmt := range sqlinline.Schema {
		if _, err := runner.Exec(ctx, stmt); err != nil {
			exitWithError(fmt.Errorf("apply schema: %w", err))
		}
	}

	logger.Info().Int("statements", len(sqlinline.Schema)).Msg("schema up to date")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
