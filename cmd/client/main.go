package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Marketplace/internal/cli/commands"
	"Marketplace/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), commands.FormatGlobalUsage())
		fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
		flag.PrintDefaults()
	}

	// env + flags; сервер и клиент читают один конфиг
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if code := commands.Dispatch(ctx, cfg, flag.Args()); code != commands.ExitOK {
		os.Exit(code)
	}
}

func printVersion() {
	fmt.Printf("Marketplace CLI (mkcli)\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
