package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/neo-harvester/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/neo-harvester/internal/adapter/kafka"
	"github.com/couchcryptid/neo-harvester/internal/adapter/neows"
	"github.com/couchcryptid/neo-harvester/internal/adapter/sqlite"
	"github.com/couchcryptid/neo-harvester/internal/config"
	"github.com/couchcryptid/neo-harvester/internal/observability"
	"github.com/couchcryptid/neo-harvester/internal/pipeline"
)

// harvest wires the NeoWs client, transformer and loaders into a pipeline and
// runs it once. The summary line goes to stdout only on full success.
func harvest(ctx context.Context, cfg *config.Config, opts config.RunOptions, logger *slog.Logger, metrics *observability.Metrics, stdout io.Writer) error {
	client := neows.NewClient(cfg.NeoWsBaseURL, cfg.APIKey, cfg.RequestTimeout, metrics, logger)
	transformer := pipeline.NewTransformer(opts.Strict, logger, metrics)

	loaders, closeAll, err := buildLoaders(cfg, opts, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	p := pipeline.New(client, transformer, loaders, logger, metrics, pipeline.Options{
		Target:    opts.Count,
		PageSize:  opts.PageSize,
		PageDelay: cfg.PageDelay,
		MaxPages:  cfg.MaxPages,
	})

	doc, err := p.Run(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Wrote %s with %d NEOs.\n", opts.OutFile, doc.Count)
	return nil
}

// buildLoaders returns the JSON writer followed by any enabled exporters, and
// a func that closes the ones holding connections.
func buildLoaders(cfg *config.Config, opts config.RunOptions, logger *slog.Logger) ([]pipeline.Loader, func(), error) {
	loaders := []pipeline.Loader{jsonfile.NewWriter(opts.OutFile, logger)}
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error("exporter close error", "error", err)
			}
		}
	}

	if cfg.SQLitePath != "" {
		catalog, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, closeAll, fmt.Errorf("%w via sqlite: %w", pipeline.ErrLoad, err)
		}
		loaders = append(loaders, catalog)
		closers = append(closers, catalog.Close)
		logger.Info("sqlite catalog enabled", "path", cfg.SQLitePath)
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		closers = append(closers, writer.Close)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	return loaders, closeAll, nil
}
