// Command coordinatord runs the Arachnid coordination engine, either as a
// long-lived HTTP server or as a one-shot task runner, plus a handful of
// operational subcommands for inspecting webs and agents and managing the
// Postgres schema.
//
// # Configuration
//
// Environment variables (see config.Load):
//
//	ARACHNID_DATABASE_URL   - Postgres connection string (required)
//	ARACHNID_REDIS_URL      - Redis URL backing the validation budget (optional)
//	ARACHNID_REDIS_PASSWORD - Redis password (optional)
//	ANTHROPIC_API_KEY       - Claude completion provider
//	OPENAI_API_KEY          - OpenAI embedding provider
//	BRAVE_API_KEY           - web_search tool provider (optional)
//	ARACHNID_LISTEN_ADDR    - httpapi bind address (default ":8080")
//	ARACHNID_METRICS_ADDR   - reported by `config show`; no listener is opened on it (default ":9090")
//	ARACHNID_POLL_INTERVAL  - coordination loop sleep (default "10ms")
//	ARACHNID_MAX_ITERATIONS - loop iteration bound (default 100)
//	ARACHNID_LOG_FORMAT     - "text" or "json" (default "text")
//	ARACHNID_LOG_DEBUG      - enable debug logging (default false)
//
// # Subcommands
//
//	coordinatord serve                      run the HTTP API until signaled
//	coordinatord run <task>                  seed one web and run it to completion
//	coordinatord status                      check database and provider connectivity
//	coordinatord web <id> [results|agents|signals|terminate]
//	coordinatord agent <id> [--context] [--signals]
//	coordinatord config [show|path]
//	coordinatord migrate [--status|--rollback]
//	coordinatord validate-config
//	coordinatord version [--detailed]
package main

import (
	"context"
	"fmt"
	"os"

	"goa.design/clue/log"

	"github.com/Pharbi/arachnid/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	// version/validate-config operate without a loaded Config (or
	// construct their own), every other subcommand needs one up front.
	switch cmd {
	case "version":
		os.Exit(runVersion(args))
	case "validate-config":
		os.Exit(runValidateConfig())
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		os.Exit(1)
	}
	ctx := logContext(cfg)

	var exitCode int
	switch cmd {
	case "serve":
		exitCode = runServe(ctx, cfg)
	case "run":
		exitCode = runTask(ctx, cfg, args)
	case "status":
		exitCode = runStatus(ctx, cfg)
	case "web":
		exitCode = runWeb(ctx, cfg, args)
	case "agent":
		exitCode = runAgent(ctx, cfg, args)
	case "config":
		exitCode = runConfigCmd(cfg, args)
	case "migrate":
		exitCode = runMigrate(cfg, args)
	default:
		usage()
		exitCode = 1
	}
	os.Exit(exitCode)
}

func logContext(cfg config.Config) context.Context {
	format := log.FormatTerminal
	if cfg.LogFormat == "json" {
		format = log.FormatJSON
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if cfg.LogDebug {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: coordinatord <command> [arguments]

commands:
  serve             run the HTTP API until signaled
  run <task>        seed one web and run it to completion
  status            check database and provider connectivity
  web <id> ...      inspect or terminate a web
  agent <id> ...    inspect an agent
  config ...        show or locate configuration
  migrate ...       apply or inspect database migrations
  validate-config   validate environment configuration and exit
  version           print build version`)
}
