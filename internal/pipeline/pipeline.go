package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/drakos74/market-predictor/internal/artifact"
	"github.com/drakos74/market-predictor/internal/dataset"
	"github.com/drakos74/market-predictor/internal/eval"
	"github.com/drakos74/market-predictor/internal/indicator"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/drakos74/market-predictor/internal/storage"
	jsonstore "github.com/drakos74/market-predictor/internal/storage/file/json"
	"github.com/drakos74/market-predictor/internal/train"
	"github.com/rs/zerolog/log"
)

// Outcome is the result of training and evaluating one classifier kind.
type Outcome struct {
	Manifest   *artifact.Manifest `json:"manifest"`
	Report     *eval.Report       `json:"report"`
	Training   *train.Result      `json:"training,omitempty"`
	Importance map[string]float64 `json:"importance,omitempty"`
	// TestTime holds the timestamps of the evaluated rows.
	TestTime   []time.Time        `json:"test_time"`
	// Run names the checkpoints and the journal of a network training.
	Run        int64              `json:"run,omitempty"`
}

// Prediction is the up probability for one bar.
type Prediction struct {
	Time        time.Time `json:"time"`
	Probability float64   `json:"probability"`
	Up          bool      `json:"up"`
}

// Pipeline wires the stages from bars to stored artifacts.
type Pipeline struct {
	cfg    Config
	kinds  []model.Kind
	engine *indicator.Engine
	store  *artifact.Store
}

// New creates a new pipeline for the config and the custom indicators.
func New(cfg Config, extensions ...indicator.Extension) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %s: %w", err.Error(), model.ConfigErr)
	}
	kinds, err := cfg.kinds()
	if err != nil {
		return nil, err
	}
	engine, err := indicator.New(cfg.Indicators, extensions...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		kinds:  kinds,
		engine: engine,
		store:  artifact.New(filepath.Join(cfg.Dir, storage.ModelDir)),
	}, nil
}

// Store returns the artifact store of the pipeline.
func (p *Pipeline) Store() *artifact.Store {
	return p.store
}

// Matrix derives the features and labels of the bars and builds the normalized matrix.
func (p *Pipeline) Matrix(bars []model.Bar) (*dataset.Matrix, error) {
	indicatorized, err := p.engine.Compute(bars)
	if err != nil {
		return nil, fmt.Errorf("could not compute indicators: %w", err)
	}
	labeled, err := dataset.Label(indicatorized, p.cfg.Horizons...)
	if err != nil {
		return nil, fmt.Errorf("could not label bars: %w", err)
	}
	return dataset.Build(labeled, p.engine.Schema(), p.cfg.Horizon, p.cfg.TestFraction)
}

// Run trains, evaluates and stores every configured classifier kind under the given version.
func (p *Pipeline) Run(ctx context.Context, bars []model.Bar, version string) ([]Outcome, error) {
	m, err := p.Matrix(bars)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(p.kinds))
	for _, kind := range p.kinds {
		outcome, c, err := p.train(ctx, kind, m)
		if err != nil {
			return outcomes, fmt.Errorf("could not train '%s': %w", kind, err)
		}
		manifest, err := p.store.Save(c, m.Scaler, m.Schema, kind, version)
		if err != nil {
			return outcomes, fmt.Errorf("could not save '%s': %w", kind, err)
		}
		outcome.Manifest = manifest
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (p *Pipeline) train(ctx context.Context, kind model.Kind, m *dataset.Matrix) (Outcome, model.Classifier, error) {
	outcome := Outcome{
		TestTime: m.TestTime,
	}
	var c model.Classifier
	switch kind {
	case model.NetworkKind:
		outcome.Run = time.Now().UnixNano()
		trainer, err := p.sequence(kind, outcome.Run)
		if err != nil {
			return outcome, nil, err
		}
		result, err := trainer.Train(ctx, m.XTrain, m.YTrain)
		if err != nil {
			return outcome, nil, err
		}
		c = result.Model
		outcome.Training = result
	default:
		classifier, err := train.Classifier(p.cfg.Training).Train(kind, m.XTrain, m.YTrain)
		if err != nil {
			return outcome, nil, err
		}
		c = classifier
		if importance, ok := train.Importance(c); ok {
			outcome.Importance = named(m.Schema, importance)
			logImportance(kind, outcome.Importance)
		}
	}

	report, err := eval.Evaluate(c, p.cfg.Threshold, m.XTest, m.YTest)
	if err != nil {
		return outcome, nil, fmt.Errorf("could not evaluate: %w", err)
	}
	outcome.Report = report
	return outcome, c, nil
}

func (p *Pipeline) sequence(kind model.Kind, run int64) (*train.SequenceTrainer, error) {
	table := filepath.Join(storage.CheckpointDir, string(kind))
	shard := storage.VoidShard(table)
	var journal storage.Persistence = storage.NewVoidStorage()
	if p.cfg.Checkpoints {
		shard = jsonstore.BlobShard(p.cfg.Dir, table)
		journal = jsonstore.NewLogger(filepath.Join(p.cfg.Dir, storage.HistoryDir))
	}
	checkpoints, err := shard(strconv.FormatInt(run, 10))
	if err != nil {
		return nil, fmt.Errorf("could not create checkpoint storage: %w", err)
	}
	log.Info().
		Int64("run", run).
		Str("kind", string(kind)).
		Bool("checkpoints", p.cfg.Checkpoints).
		Msg("network training")
	return train.Sequence(p.cfg.Training).
		WithPair(p.cfg.Pair).
		WithCheckpoints(checkpoints).
		WithJournal(journal, run), nil
}

// Predict loads the stored version and returns the up probability of every bar with defined features.
func (p *Pipeline) Predict(bars []model.Bar, kind model.Kind, version string) ([]Prediction, error) {
	a, err := p.store.Load(kind, version)
	if err != nil {
		return nil, err
	}
	if !a.Schema.Equal(p.engine.Schema()) {
		return nil, fmt.Errorf("stored schema %v does not match the computed one %v: %w",
			a.Schema.Features, p.engine.Schema().Features, model.ConfigErr)
	}

	indicatorized, err := p.engine.Compute(bars)
	if err != nil {
		return nil, fmt.Errorf("could not compute indicators: %w", err)
	}
	x, err := dataset.Vectors(indicatorized, a.Schema)
	if err != nil {
		return nil, err
	}
	x, err = a.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	probabilities := a.Classifier.Probability(x)
	up := eval.Predict(probabilities, p.cfg.Threshold)
	predictions := make([]Prediction, len(x))
	for i, prob := range probabilities {
		predictions[i] = Prediction{
			Time:        indicatorized[i].Time,
			Probability: prob,
			Up:          up[i] == 1,
		}
	}
	return predictions, nil
}

func named(schema model.Schema, importance []float64) map[string]float64 {
	m := make(map[string]float64, len(importance))
	for i, v := range importance {
		m[schema.Features[i]] = v
	}
	return m
}

func logImportance(kind model.Kind, importance map[string]float64) {
	names := make([]string, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importance[names[i]] == importance[names[j]] {
			return names[i] < names[j]
		}
		return importance[names[i]] > importance[names[j]]
	})
	for i, name := range names {
		log.Debug().
			Str("kind", string(kind)).
			Int("rank", i+1).
			Str("feature", name).
			Float64("importance", importance[name]).
			Msg("feature importance")
	}
}
