package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvcoi/ytbatch/internal/app"
	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/db"
	"github.com/lvcoi/ytbatch/internal/downloader"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args, os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		err = downloader.CategorizedError{Category: downloader.CategoryConfig, Err: err}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return downloader.ExitCode(err)
	}

	logger := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.JSON)

	if cfg.ListCatalog {
		return listCatalog(cfg, logger)
	}

	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("preparing output directories", "err", err)
		return downloader.ExitCode(downloader.CategorizedError{Category: downloader.CategoryIO, Err: err})
	}
	urls, err := cfg.URLList()
	if err != nil {
		logger.Error("loading url list", "file", cfg.URLFile, "err", err)
		return downloader.ExitCode(downloader.CategorizedError{Category: downloader.CategoryConfig, Err: err})
	}
	logger.Info("count of urls to download", "count", len(urls), "workers", cfg.Workers())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := downloader.NewPrinter(os.Stdout, len(urls), downloader.PrinterOptions{
		Quiet: cfg.Quiet,
		JSON:  cfg.JSON,
		Color: !cfg.JSON && downloader.SupportsColor(os.Stdout),
	})

	pipeline := &downloader.Pipeline{
		Resolver: downloader.NewYouTubeResolver(downloader.NewYouTubeClient(cfg.Timeout), cfg.RateLimit),
		Extractor: downloader.Extractor{
			Timeout: cfg.TranscodeTimeout,
			Lenient: cfg.LenientExit,
		},
		Tags:     cfg.Tags,
		Reporter: printer,
		Logger:   logger,
	}

	var catalog *db.DB
	if cfg.CatalogPath != "" {
		catalog, err = db.Open(cfg.CatalogPath)
		if err != nil {
			logger.Error("opening catalog", "path", cfg.CatalogPath, "err", err)
			return downloader.ExitCode(downloader.CategorizedError{Category: downloader.CategoryConfig, Err: err})
		}
		defer catalog.Close()
		pipeline.Recorder = catalog
	}

	outcomes := app.RunAll(ctx, urls, cfg, pipeline, printer)
	printer.Summary(downloader.Summarize(outcomes))
	if catalog != nil {
		if n, err := catalog.Count(context.Background()); err != nil {
			logger.Warn("counting catalog artifacts", "path", cfg.CatalogPath, "err", err)
		} else {
			logger.Info("catalog updated", "path", cfg.CatalogPath, "artifacts", n)
		}
	}
	return app.ExitCode(ctx, outcomes)
}

func listCatalog(cfg config.Config, logger *slog.Logger) int {
	catalog, err := db.Open(cfg.CatalogPath)
	if err != nil {
		logger.Error("opening catalog", "path", cfg.CatalogPath, "err", err)
		return downloader.ExitCode(downloader.CategorizedError{Category: downloader.CategoryConfig, Err: err})
	}
	defer catalog.Close()

	n, err := app.ListCatalog(context.Background(), os.Stdout, catalog, cfg.JSON)
	if err != nil {
		logger.Error("listing catalog", "path", cfg.CatalogPath, "err", err)
		return downloader.ExitCode(downloader.CategorizedError{Category: downloader.CategoryIO, Err: err})
	}
	logger.Debug("listed catalog", "path", cfg.CatalogPath, "artifacts", n)
	return 0
}
