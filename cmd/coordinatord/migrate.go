package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/storage/pgstore"
)

// runMigrate implements "coordinatord migrate [--status|--rollback]". With
// no flags it applies pending migrations by constructing a Store, which
// runs them as a side effect of pgstore.New.
func runMigrate(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	status := fs.Bool("status", false, "print the current migration version and exit")
	rollback := fs.Bool("rollback", false, "revert the most recently applied migration")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	switch {
	case *status:
		version, dirty, err := pgstore.MigrationStatus(cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		fmt.Printf("version: %d\ndirty:   %t\n", version, dirty)
		if dirty {
			return 1
		}
		return 0
	case *rollback:
		if err := pgstore.Rollback(cfg.DatabaseURL); err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		fmt.Println("rolled back one migration")
		return 0
	default:
		store, err := pgstore.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		store.Close()
		fmt.Println("migrations applied")
		return 0
	}
}
