// Package app provides the corpus ingestion application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/cmd/astramed-ingest/app/options"
	"github.com/kart-io/astramed/internal/astramed/ingest"
	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/pkg/infra/app"
)

// Name is the name of the application.
const Name = "astramed-ingest"

const commandDesc = `AstraMed corpus ingestion

Reads a MedQuAD style CSV (question, answer, source, focus_area), embeds the
questions in batches and writes them to the configured vector store. The
Milvus collection or pgvector table is created when missing. For the memory
store a YAML seed file is written instead.`

// NewApp creates the ingestion application.
func NewApp() *app.App {
	opts := options.NewIngestOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Ingest the medical QA corpus"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.IngestOptions) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := opts.Config()
		if err := cfg.LogOptions.Init(Name); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		in := opts.IngestOptions
		records, err := dataset.LoadCSVFile(in.Dataset)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		if in.Limit > 0 && len(records) > in.Limit {
			records = records[:in.Limit]
		}
		logger.Infow("dataset loaded", "path", in.Dataset, "records", len(records))

		tools, err := cfg.OpenTools(ctx, false)
		if err != nil {
			return err
		}
		defer func() { _ = tools.Close() }()

		res, err := ingest.New(tools.Embedder, tools.Indexer, ingest.Config{
			BatchSize:   in.BatchSize,
			Concurrency: in.Concurrency,
		}).Run(ctx, records)
		if err != nil {
			return err
		}

		if ms, ok := tools.Indexer.(*store.MemoryStore); ok {
			if err := writeSeed(ms, in.Output); err != nil {
				return fmt.Errorf("failed to write %s: %w", in.Output, err)
			}
			logger.Infow("seed file written", "path", in.Output)
		}

		fmt.Printf("Ingested %d records (%d skipped) into %s in %s\n",
			res.Inserted, res.Skipped, tools.Indexer.Name(), res.Duration.Round(time.Millisecond))
		return nil
	}
}

func writeSeed(ms *store.MemoryStore, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ms.Export(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
