package main

import (
	"fmt"
	"os"

	"github.com/Pharbi/arachnid/config"
)

// runConfigCmd implements "coordinatord config [show|path]".
func runConfigCmd(cfg config.Config, args []string) int {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		fmt.Printf("listen_addr:      %s\n", cfg.ListenAddr)
		fmt.Printf("metrics_addr:     %s\n", cfg.MetricsAddr)
		fmt.Printf("poll_interval:    %s\n", cfg.PollInterval)
		fmt.Printf("max_iterations:   %d\n", cfg.MaxIterations)
		fmt.Printf("log_format:       %s\n", cfg.LogFormat)
		fmt.Printf("log_debug:        %t\n", cfg.LogDebug)
		fmt.Printf("redis_configured: %t\n", cfg.RedisURL != "")
		fmt.Printf("brave_configured: %t\n", cfg.BraveAPIKey != "")
		return 0
	case "path":
		fmt.Println("coordinatord reads configuration from the environment; see ARACHNID_* and ANTHROPIC_API_KEY/OPENAI_API_KEY/BRAVE_API_KEY")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "coordinatord: unknown config subcommand %q\n", sub)
		return 1
	}
}

// runValidateConfig loads and validates configuration without running
// anything, exiting non-zero on the first validation failure.
func runValidateConfig() int {
	if _, err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}
	fmt.Println("configuration valid")
	return 0
}
