package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
	"github.com/mcdev12/scoreboard/go/internal/eventlog"
)

// migrate_events creates the event log table and indexes.
func main() {
	_ = godotenv.Load()

	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, eventlog.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	var count int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM scoreboard_events`).Scan(&count); err != nil {
		fmt.Fprintf(os.Stderr, "count events: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Event schema ready on %s@%s/%s: %d events stored\n", cfg.User, cfg.Host, cfg.Database, count)
}
