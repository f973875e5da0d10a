package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Avinash9608/Furniture-sub003/pkg/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: `  furniture serve                                # sqlite in ./data
  furniture serve --backend postgres             # DATABASE_URL or DB_* from the environment
  furniture serve --port 9090 --policy policy.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer srv.Shutdown()

			startCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.ConnectTimeout)
			srv.Start(startCtx)
			cancel()

			httpServer := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: srv.Router(),
			}

			// Start server in a goroutine
			go func() {
				log.Printf("INFO: Starting furniture API on :%s (store=%s)", cfg.Port, cfg.Store.Backend)
				log.Printf("INFO: API endpoints available at http://localhost:%s%s", cfg.Port, cfg.APIPrefix)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()

			// Wait for interrupt signal to gracefully shutdown the server
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Println("INFO: Shutting down server...")

			// Give outstanding requests a deadline for completion
			ctx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancelShutdown()

			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("ERROR: Server forced to shutdown: %v", err)
			}
			log.Println("INFO: Server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "server port (default from config or PORT)")
	return cmd
}
