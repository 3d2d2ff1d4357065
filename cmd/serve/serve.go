package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainlaunch/asset-gateway/cmd/common"
	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type serveCmd struct {
	configPath  string
	port        int
	tlsCertFile string
	tlsKeyFile  string
	logger      *logger.Logger
}

func (c *serveCmd) run(cmd *cobra.Command) error {
	app, err := common.NewApp(c.configPath, c.overrides(cmd)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.logger.Error("Failed to close identity store", "error", err)
		}
	}()

	cfg := app.Config
	isTLS := cfg.Server.TLSCert != "" && cfg.Server.TLSKey != ""
	if isTLS {
		if _, err := os.Stat(cfg.Server.TLSCert); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.Server.TLSCert)
		}
		if _, err := os.Stat(cfg.Server.TLSKey); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.Server.TLSKey)
		}
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if isTLS {
			app.Logger.Info("HTTPS server listening", "port", cfg.Server.Port, "channel", cfg.Fabric.Channel, "chaincode", cfg.Fabric.Chaincode)
			errCh <- httpServer.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
			return
		}
		app.Logger.Info("HTTP server listening", "port", cfg.Server.Port, "channel", cfg.Fabric.Channel, "chaincode", cfg.Fabric.Chaincode)
		errCh <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	stats := app.Broker.Stats()
	app.Logger.Info("Server stopped", "sessionsOpened", stats.Opened, "sessionsClosed", stats.Closed)
	return nil
}

// overrides turns the flags the user set into config options so they are
// validated with the rest of the configuration.
func (c *serveCmd) overrides(cmd *cobra.Command) []config.Option {
	var opts []config.Option
	if cmd.Flags().Changed("port") {
		opts = append(opts, config.WithPort(c.port))
	}
	if c.tlsCertFile != "" || c.tlsKeyFile != "" {
		opts = append(opts, config.WithTLS(c.tlsCertFile, c.tlsKeyFile))
	}
	return opts
}

func Command(logger *logger.Logger) *cobra.Command {
	c := &serveCmd{logger: logger}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP gateway on the specified port.
For example:
  asset-gateway serve --config gateway.yaml --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd)
		},
	}

	serveCmd.Flags().StringVarP(&c.configPath, "config", "c", "", "Path to the gateway configuration file")
	serveCmd.Flags().IntVarP(&c.port, "port", "p", 3000, "Port to run the HTTP server on (overrides config and PORT)")
	serveCmd.Flags().StringVar(&c.tlsCertFile, "tls-cert", "", "Path to TLS certificate file for HTTP server")
	serveCmd.Flags().StringVar(&c.tlsKeyFile, "tls-key", "", "Path to TLS key file for HTTP server")

	return serveCmd
}
