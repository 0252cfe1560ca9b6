// Package app provides the offline evaluation application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/cmd/astramed-eval/app/options"
	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/internal/pkg/evaluator"
	"github.com/kart-io/astramed/pkg/infra/app"
	"github.com/kart-io/astramed/pkg/llm"
)

// Name is the name of the application.
const Name = "astramed-eval"

const commandDesc = `AstraMed offline evaluation

Draws a fixed-seed sample from a MedQuAD style CSV, answers every question
through a k=1 lookup against the configured vector store and scores the
responses against the reference answers with a sentence embedding model.

The run only reads the vector store; it never touches serving state.`

// NewApp creates the evaluation application.
func NewApp() *app.App {
	opts := options.NewEvalOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Evaluate AstraMed answers offline"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.EvalOptions) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := opts.Config()
		if err := cfg.LogOptions.Init(Name); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		eo := opts.EvalOptions
		records, err := dataset.LoadCSVFile(eo.Dataset)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		samples := dataset.Sample(records, eo.Samples, eo.Seed)
		logger.Infow("samples drawn", "dataset", eo.Dataset, "records", len(records), "samples", len(samples), "seed", eo.Seed)

		tools, err := cfg.OpenTools(ctx, true)
		if err != nil {
			return err
		}
		defer func() { _ = tools.Close() }()

		chat, err := llm.NewChatProvider(opts.ChatOptions.Provider, opts.ChatOptions.ToConfigMap())
		if err != nil {
			return fmt.Errorf("failed to initialize chat provider: %w", err)
		}
		relevance, err := llm.NewEmbeddingProvider(opts.RelevanceOptions.Provider, opts.RelevanceOptions.ToConfigMap())
		if err != nil {
			return fmt.Errorf("failed to initialize relevance provider: %w", err)
		}

		ev := evaluator.New(store.NewEvalIndex(tools.Indexer), chat, relevance, eo.Config())
		report, err := ev.Evaluate(ctx, samples)
		if err != nil {
			return err
		}

		if err := report.WriteSummary(os.Stdout, eo.Detailed); err != nil {
			return err
		}
		if eo.Output != "" {
			if err := report.WriteFile(eo.Output); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			logger.Infow("report written", "path", eo.Output)
		}
		return nil
	}
}
