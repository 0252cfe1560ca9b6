// Package app provides the AstraMed server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/astramed/cmd/astramed/app/options"
	"github.com/kart-io/astramed/internal/astramed"
	"github.com/kart-io/astramed/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `AstraMed medical question answering service

Answers health questions in French, English and Arabic from a curated
medical QA corpus.

This server provides:
  - Retrieval over Milvus, PostgreSQL pgvector or an in-memory corpus
  - Routing of general conversation away from retrieval
  - Synthesis of retrieved answers with Gemini, Ollama or OpenAI models
  - Feedback collection in SQL, Redis or MongoDB backends`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(astramed.Name),
		app.WithShortDescription("AstraMed medical QA service"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithWatchConfig(),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// 初始化阶段（语料嵌入、连接后端）也可以被信号中断
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}
