// Package main is the entry point for the taskchat CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"

	"taskchat/internal/auth"
	"taskchat/internal/backend/restapi"
	"taskchat/internal/cli"
	"taskchat/internal/commands"
	"taskchat/internal/config"
	"taskchat/internal/service"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		var creds oauth2.TokenSource
		if cfg.Token != "" {
			creds = auth.Static(cfg.Token)
		} else {
			creds = auth.FileTokenSource(cfg.TokenPath())
		}
		return restapi.New(ctx, cfg, creds, restapi.WithLogger(cfg.Log()))
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
