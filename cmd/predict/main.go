package main

import (
	"flag"
	"fmt"

	coinmath "github.com/drakos74/market-predictor/internal/math"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/drakos74/market-predictor/internal/pipeline"
	"github.com/drakos74/market-predictor/internal/storage/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func main() {

	configFile := flag.String("config", "infra/config/pipeline.yaml", "pipeline config file")
	barsFile := flag.String("bars", "", "bar series file")
	kindName := flag.String("kind", string(model.ForestKind), "classifier kind")
	version := flag.String("version", "", "stored model version, the latest if empty")
	flag.Parse()

	cfg, err := pipeline.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFile).Msg("could not load config")
	}
	kind, err := model.ParseKind(*kindName)
	if err != nil {
		log.Fatal().Err(err).Msg("unknown kind")
	}
	series, err := file.Load(*barsFile)
	if err != nil {
		log.Fatal().Err(err).Str("bars", *barsFile).Msg("could not load bars")
	}

	p, err := pipeline.New(*cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create pipeline")
	}

	v := *version
	if v == "" {
		versions, err := p.Store().Versions(kind)
		if err != nil || len(versions) == 0 {
			log.Fatal().Err(err).Str("kind", string(kind)).Msg("no stored version")
		}
		v = versions[len(versions)-1]
	}

	predictions, err := p.Predict(series.Bars, kind, v)
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(kind)).Str("version", v).Msg("could not predict")
	}
	if len(predictions) == 0 {
		log.Fatal().Int("bars", len(series.Bars)).Msg("not enough bars for a prediction")
	}

	last := predictions[len(predictions)-1]
	direction := "down"
	if last.Up {
		direction = "up"
	}
	fmt.Printf("%s %s %s/%s p(up)=%s %s\n",
		series.Pair, last.Time.Format("2006-01-02"), kind, v, coinmath.Format(last.Probability), direction)

}
