package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/di"
	"github.com/tdcjreform/community/internal/server"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 30 * time.Second

// ServeCommand returns the serve command that runs the webhook endpoint
func ServeCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the GitHub webhook endpoint",
		Description: `Listens for GitHub push webhooks on POST /webhook (and POST /).

Examples:
  # Serve with configuration from the environment (Cloud Run)
  function-deployer serve

  # Serve locally with a configuration file
  function-deployer serve --port 8080 --config config.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   "8080",
				EnvVars: []string{"PORT"},
			},
			configFlag(),
			envFlag(),
			&cli.BoolFlag{
				Name:    "disable-rate-limit",
				Usage:   "Disable per-repository rate limiting",
				EnvVars: []string{"DISABLE_RATE_LIMIT"},
			},
		},
		Action: func(c *cli.Context) error {
			return serveAction(c, logger)
		},
	}
}

func serveAction(c *cli.Context, logger *zerolog.Logger) error {
	addr := fmt.Sprintf(":%s", c.String("port"))
	disableRateLimit := c.Bool("disable-rate-limit")

	container, err := newContainer(c, logger, di.WithDisableRateLimit(disableRateLimit))
	if err != nil {
		return fmt.Errorf("failed to setup DI container: %w", err)
	}

	handler, err := di.Get[*server.Handler](container)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	if disableRateLimit {
		logger.Warn().Msg("Rate limiting is DISABLED")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.LoggingMiddleware(*logger)(handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
