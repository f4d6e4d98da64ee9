package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	httpAdapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP operator API",
	Long: `Starts the engine as a long-running HTTP service. Workflows are
submitted over the API; executors must be allow-listed with --allow
since documents arriving over the wire are untrusted.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().StringArray("allow", nil, "Allowed executor (name=command), repeatable")
}

func runServe(cmd *cobra.Command) error {
	executor, err := newExecutor(cmd, nil)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	port, _ := cmd.Flags().GetString("port")
	logger := newLogger(cmd)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	eng := espalier.New(executor,
		espalier.WithLogger(logger),
		espalier.WithCheckpointStore(newStore(cmd, nil)),
		espalier.WithWorkDir(dir),
		espalier.WithLifecycleHooks(metrics.Hooks()),
	)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpAdapter.NewHandler(eng, httpAdapter.WithLogger(logger)),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting Espalier Server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("Espalier Server stopped gracefully")
	}
	return nil
}
