package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"PromoScanner/internal/app"
	"PromoScanner/internal/config"
	"PromoScanner/internal/logging"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.Mode, "mode", "scan", "scan, stores, search, or prices")
	flag.BoolVar(&opts.Watch, "watch", false, "keep running and rescan on the configured interval")
	flag.BoolVar(&opts.IncludeNonFull, "include-non-full", false, "also ingest incremental price/promo feeds")
	flag.StringVar(&opts.Chain, "chain", "", "chain name (stores/search/prices modes)")
	flag.StringVar(&opts.StoreID, "store", "", "store id (search/prices modes)")
	flag.StringVar(&opts.City, "city", "", "city name for stores mode, as spelled in the chain's feed")
	flag.StringVar(&opts.Query, "query", "", "promotion name fragment for search mode")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, opts, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
