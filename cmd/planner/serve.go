package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-planner/api"
	"github.com/warp/fiscal-planner/logger"
	"github.com/warp/fiscal-planner/store/sqlite"
)

func newServeCommand(a *app) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), scenario)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP server port")
	a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	cmd.Flags().StringVar(&scenario, "scenario", "", "demo scenario to load before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, scenario string) error {
	log := logger.WithComponent("server")

	// Initialize store
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if scenario != "" {
		if err := api.ApplyScenario(ctx, store, scenario); err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		log.Info("scenario loaded", "scenario", scenario)
	}

	handler := api.NewHandler(store, logger.Get())
	router := api.NewRouter(handler, a.cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", server.Addr, "db", a.cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
