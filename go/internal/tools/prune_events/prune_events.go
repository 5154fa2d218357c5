package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
)

// prune_events deletes event log rows older than the retention window.
func main() {
	retain := flag.Duration("retain", 90*24*time.Hour, "keep events newer than this")
	kind := flag.String("type", "", "only prune this log type")
	dryRun := flag.Bool("dry-run", false, "count matching rows without deleting")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	cutoff := time.Now().Add(-*retain).UTC()
	where := `occurred_at < $1 AND ($2::text = '' OR kind = $2)`

	if *dryRun {
		var n int64
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM scoreboard_events WHERE `+where, cutoff, *kind).Scan(&n); err != nil {
			fmt.Fprintf(os.Stderr, "count events: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d events older than %s would be pruned\n", n, cutoff.Format(time.RFC3339))
		return
	}

	tag, err := pool.Exec(ctx, `DELETE FROM scoreboard_events WHERE `+where, cutoff, *kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prune events: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d events older than %s\n", tag.RowsAffected(), cutoff.Format(time.RFC3339))
}
