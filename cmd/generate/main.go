package main

import (
	"flag"

	coinmath "github.com/drakos74/market-predictor/internal/math"
	"github.com/drakos74/market-predictor/internal/storage/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// generates a synthetic daily bar series, e.g. to try out the training pipeline
func main() {

	pair := flag.String("pair", "EURUSD", "pair of the series")
	dir := flag.String("dir", "file-storage/bars", "output directory")
	n := flag.Int("n", 1000, "number of bars")
	seed := flag.Int64("seed", 42, "random seed")
	base := flag.Float64("base", 1.085, "starting price")
	flag.Parse()

	bars := coinmath.Walk(*seed, *n, *base, 0, *base*0.005, *base*0.002)
	path, err := file.NewSeries(*pair, bars).Save(*dir)
	if err != nil {
		log.Fatal().Err(err).Msg("could not save series")
	}
	log.Info().Str("file", path).Int("bars", len(bars)).Msg("series generated")

}
