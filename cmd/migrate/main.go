package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/vendhub/vendhub/internal/store"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if err := store.Migrate(dsn, *direction); err != nil {
		slog.Error("migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}

	slog.Info("migrations applied", "direction", *direction)
}
