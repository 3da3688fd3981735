package main

import (
	"context"
	"fmt"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/storage/pgstore"
)

// runStatus checks that the database is reachable and the configured
// providers construct successfully, without making any network calls to
// them. It does not start the HTTP API.
func runStatus(ctx context.Context, cfg config.Config) int {
	ok := true

	if _, dirty, err := pgstore.MigrationStatus(cfg.DatabaseURL); err != nil {
		fmt.Printf("database:   FAIL (%v)\n", err)
		ok = false
	} else if dirty {
		fmt.Println("database:   DIRTY (last migration failed partway)")
		ok = false
	} else {
		fmt.Println("database:   ok")
	}

	if _, err := buildLLM(ctx, cfg); err != nil {
		fmt.Printf("completion: FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Println("completion: ok")
	}

	if _, err := buildEmbedding(cfg); err != nil {
		fmt.Printf("embedding:  FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Println("embedding:  ok")
	}

	if cfg.BraveAPIKey == "" {
		fmt.Println("search:     not configured (web_search tool disabled)")
	} else {
		fmt.Println("search:     ok")
	}

	if !ok {
		return 1
	}
	return 0
}
