package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/types"
)

// taskTimeout bounds a single "run" invocation; it is the caller-supplied
// overall deadline coordination.Engine.Run's doc comment says is the
// caller's responsibility.
const taskTimeout = 5 * time.Minute

// runTask seeds one web from a task string, drives it to completion, and
// prints the root agent's accumulated knowledge as JSON. Exits non-zero
// on task timeout or a Failed terminal state.
func runTask(ctx context.Context, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: coordinatord run <task>")
		return 1
	}
	task := strings.Join(args, " ")

	d, closeDeps, err := buildDeps(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}
	defer closeDeps()

	web, err := d.engine.CreateWeb(ctx, task, cfg.DefaultWeb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: create web: %v\n", err)
		return 1
	}

	runCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()
	if err := d.engine.Run(runCtx, web.ID); err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: run: %v\n", err)
		return 1
	}

	final, err := d.store.GetWeb(ctx, web.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: fetch final web state: %v\n", err)
		return 1
	}
	root, err := d.store.GetAgent(ctx, final.RootAgentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: fetch root agent: %v\n", err)
		return 1
	}

	out := struct {
		WebID  types.WebID         `json:"web_id"`
		State  types.WebState      `json:"state"`
		Result []types.ContextItem `json:"result"`
	}{WebID: final.ID, State: final.State, Result: root.Context.AccumulatedKnowledge}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: encode result: %v\n", err)
		return 1
	}

	if final.State == types.WebFailed {
		return 1
	}
	return 0
}
