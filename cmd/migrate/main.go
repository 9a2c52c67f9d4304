// Package main provides the stats database migration runner.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	res, err := postgres.Migrate(cfg.Database.DSN(), *direction, *steps)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	elapsed := time.Since(start)

	if res.NoChange {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, elapsed)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, res.Version, res.Dirty, elapsed)
	}
}
