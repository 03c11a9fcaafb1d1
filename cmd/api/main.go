package main

import (
	"context"
	"log"
	"os"

	"github.com/vadim/comments-fetcher/internal/app"
	"github.com/vadim/comments-fetcher/internal/config"
)

func main() {
	log.SetPrefix("comments-fetcher: ")

	cfg := config.MustLoad()

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	log.Printf("listening on %s (%d analysis workers, shutdown timeout %s)",
		cfg.Server.Address(), cfg.Analysis.Workers, cfg.Server.ShutdownTimeout)

	// Blocks until SIGINT/SIGTERM, then drains running jobs
	if err := application.Run(ctx); err != nil {
		log.Printf("stopped with error: %v", err)
		os.Exit(1)
	}
}
