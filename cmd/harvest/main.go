// Command harvest pages through the NeoWs browse endpoint, normalises each
// object into a flat orbital-element record and writes the accepted records
// to a JSON document, with optional SQLite and Kafka exporters.
//
// Usage:
//
//	NASA_API_KEY=... go run ./cmd/harvest --count 150 -o neodb.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/neo-harvester/internal/config"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/couchcryptid/neo-harvester/internal/observability"
	"github.com/couchcryptid/neo-harvester/internal/pipeline"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const (
	exitOK = iota
	exitRetrieval
	exitUsage
	exitExport
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newCommand(os.Stdout).Run(ctx, os.Args)
	stop()

	if err != nil {
		slog.Error("harvest failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "harvest",
		Usage: "Fetch near-Earth objects from NASA NeoWs and write a normalised JSON catalog",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Usage:   "number of accepted NEOs to collect",
				Value:   config.DefaultCount,
				Sources: cli.EnvVars("NEO_COUNT"),
			},
			&cli.StringFlag{
				Name:    "outfile",
				Aliases: []string{"o"},
				Usage:   "path of the JSON document to write",
				Value:   config.DefaultOutFile,
				Sources: cli.EnvVars("NEO_OUTFILE"),
			},
			&cli.IntFlag{
				Name:    "page-size",
				Usage:   "objects requested per browse page (1-50)",
				Value:   config.DefaultPageSize,
				Sources: cli.EnvVars("NEO_PAGE_SIZE"),
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "also reject records with physically implausible elements",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := config.RunOptions{
				Count:    int(cmd.Int("count")),
				PageSize: int(cmd.Int("page-size")),
				OutFile:  cmd.String("outfile"),
				Strict:   cmd.Bool("strict"),
			}
			return run(ctx, opts, stdout)
		},
	}
}

func run(ctx context.Context, opts config.RunOptions, stdout io.Writer) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	if cfg.UsingDemoKey() {
		logger.Warn("NASA_API_KEY not set, using the rate-limited DEMO_KEY")
	}

	err = harvest(ctx, cfg, opts, logger, metrics, stdout)

	if cfg.MetricsFile != "" {
		if werr := observability.WriteTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); werr != nil {
			logger.Warn("metrics textfile not written", "path", cfg.MetricsFile, "error", werr)
		}
	}
	return err
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	var rerr *domain.RetrievalError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &rerr), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitRetrieval
	case errors.Is(err, pipeline.ErrLoad):
		return exitExport
	default:
		return exitUsage
	}
}
