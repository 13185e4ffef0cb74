package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drakos74/market-predictor/internal/metrics"
	"github.com/drakos74/market-predictor/internal/pipeline"
	"github.com/drakos74/market-predictor/internal/storage"
	"github.com/drakos74/market-predictor/internal/storage/file"
	"github.com/drakos74/market-predictor/internal/storage/file/json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

type options struct {
	config  string
	bars    string
	version string
	metrics string
}

func main() {

	var opts options
	flag.StringVar(&opts.config, "config", "infra/config/pipeline.yaml", "pipeline config file")
	flag.StringVar(&opts.bars, "bars", "", "bar series file")
	flag.StringVar(&opts.version, "version", time.Now().Format("20060102_150405"), "version of the stored models")
	flag.StringVar(&opts.metrics, "metrics", "", "address to expose the training metrics on")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Error().Err(err).Msg("training failed")
		os.Exit(1)
	}

}

// run trains and stores the configured models.
// It returns instead of exiting so that the metrics server and the signal context are released.
func run(opts options) error {

	if opts.bars == "" {
		return fmt.Errorf("no bar series given")
	}

	cfg, err := pipeline.LoadConfig(opts.config)
	if err != nil {
		return fmt.Errorf("could not load config '%s': %w", opts.config, err)
	}

	if opts.metrics != "" {
		server := metrics.Serve(opts.metrics)
		defer server.Close()
	}

	series, err := file.Load(opts.bars)
	if err != nil {
		return fmt.Errorf("could not load bars '%s': %w", opts.bars, err)
	}
	if series.Pair != cfg.Pair {
		log.Warn().Str("series", series.Pair).Str("config", cfg.Pair).Msg("pair mismatch")
	}

	p, err := pipeline.New(*cfg)
	if err != nil {
		return fmt.Errorf("could not create pipeline: %w", err)
	}

	ctx, cnl := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cnl()

	outcomes, err := p.Run(ctx, series.Bars, opts.version)
	for _, outcome := range outcomes {
		report := filepath.Join(cfg.Dir, storage.ModelDir, fmt.Sprintf("report_%s_%s.json", outcome.Manifest.Kind, opts.version))
		if err := json.Capture(outcome, report); err != nil {
			log.Error().Err(err).Str("file", report).Msg("could not write report")
		}
		log.Info().
			Str("kind", string(outcome.Manifest.Kind)).
			Str("version", opts.version).
			Float64("accuracy", outcome.Report.Accuracy).
			Float64("f1", outcome.Report.F1).
			Str("report", report).
			Msg("model stored")
	}
	return err
}
