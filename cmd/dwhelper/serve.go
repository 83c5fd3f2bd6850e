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
	"go.uber.org/zap"

	"github.com/yourusername/dwhelper-go/api"
	"github.com/yourusername/dwhelper-go/api/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(configPath)
		if err != nil {
			return err
		}
		defer rt.Close()
		return runServer(rt)
	},
}

func runServer(rt *runtime) error {
	log := rt.log
	config := rt.config

	log.Info("Starting dwhelper server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Any("chain", rt.resolver.Chain()))

	router := api.SetupRouter(rt.session, api.RouterConfig{
		DefaultFolder: rt.destination(folder),
		LogsDir:       config.Download.LogsDir,
		Chain:         rt.resolver.Chain(),
	}, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	log.Info("Shutting down server...")

	// In-flight resolutions are not cancelled; shutdown waits for them up to the timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
