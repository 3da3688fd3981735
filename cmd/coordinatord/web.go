package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/types"
)

// runWeb implements "coordinatord web <id> [results|agents|signals|terminate]".
// With no subcommand it prints the web record itself.
func runWeb(ctx context.Context, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: coordinatord web <id> [results|agents|signals|terminate]")
		return 1
	}
	webID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: invalid web id: %v\n", err)
		return 1
	}
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	d, closeDeps, err := buildDeps(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}
	defer closeDeps()

	web, err := d.store.GetWeb(ctx, webID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}

	switch sub {
	case "", "show":
		return printJSON(web)
	case "results":
		root, err := d.store.GetAgent(ctx, web.RootAgentID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		return printJSON(root.Context.AccumulatedKnowledge)
	case "agents":
		agents, err := d.store.GetWebAgents(ctx, webID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		return printJSON(agents)
	case "signals":
		signals, err := d.store.GetPendingSignals(ctx, webID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		return printJSON(signals)
	case "terminate":
		web.State = types.WebFailed
		if err := d.store.UpdateWeb(ctx, web); err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		fmt.Println("terminated")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "coordinatord: unknown web subcommand %q\n", sub)
		return 1
	}
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: encode: %v\n", err)
		return 1
	}
	return 0
}
