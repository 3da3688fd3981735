package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/types"
)

// runAgent implements "coordinatord agent <id> [--context] [--signals]".
// With no flags it prints the full agent record; --context restricts
// output to the agent's accumulated knowledge, --signals to the pending
// signals this agent originated.
func runAgent(ctx context.Context, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: coordinatord agent <id> [--context] [--signals]")
		return 1
	}
	agentID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: invalid agent id: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	showContext := fs.Bool("context", false, "print only the agent's accumulated knowledge")
	showSignals := fs.Bool("signals", false, "print only the agent's originated pending signals")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	d, closeDeps, err := buildDeps(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}
	defer closeDeps()

	agent, err := d.store.GetAgent(ctx, agentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}

	switch {
	case *showContext:
		return printJSON(agent.Context)
	case *showSignals:
		pending, err := d.store.GetPendingSignals(ctx, agent.WebID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
		originated := make([]types.Signal, 0, len(pending))
		for _, s := range pending {
			if s.Origin == agentID {
				originated = append(originated, s)
			}
		}
		return printJSON(originated)
	default:
		return printJSON(agent)
	}
}
