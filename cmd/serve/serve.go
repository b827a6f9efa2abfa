// Package serve implements the HTTP API server subcommand.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	api "github.com/qahub/qa-hub/internal/api/v2"
	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/logging"
)

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Qa-Hub API server",
		Long:  "Open the configured database and serve the REST API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.WebServer.AuthToken, "authtoken", viper.GetString("webserver.authtoken"), "Bearer token required on mutating endpoints")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}
	return nil
}

// runServer opens the datastore, wires the API controller, and blocks until
// a shutdown signal arrives.
func runServer(settings *conf.Settings) error {
	ds := datastore.New(settings)
	if ds == nil {
		return errors.New("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logging.Error("Failed to close datastore", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	controller := api.New(e, ds, settings, log.Default())
	defer controller.Shutdown()

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logging.Info("Qa-Hub API listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
