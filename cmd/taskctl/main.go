package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studytodo/internal/cli"
	"studytodo/internal/client"
	"studytodo/internal/config"
	"studytodo/internal/logger"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(cli.ExitUsage)
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	log := logger.NewTo(os.Stderr, "taskctl", level)

	api, err := client.New(cfg.APIURL, cfg.Timeout.Duration(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, api, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
