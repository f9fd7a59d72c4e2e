package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/curielabs/curie/pkg/agent"
	"github.com/curielabs/curie/pkg/gateway"
	"github.com/curielabs/curie/pkg/logger"
	"github.com/curielabs/curie/pkg/threadstore"
)

func newServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func serve(debug bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	}

	store, err := threadstore.NewStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open thread store: %w", err)
	}
	defer store.Close()

	orchestrator, err := agent.NewOrchestrator(cfg, store)
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	server := gateway.NewServer(cfg, orchestrator)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	logger.InfoCF("main", "Curie is running", map[string]any{
		"host":    cfg.Gateway.Host,
		"port":    cfg.Gateway.Port,
		"store":   cfg.Store.Backend,
		"version": formatVersion(),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.InfoCF("main", "Shutting down", map[string]any{"signal": sig.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
