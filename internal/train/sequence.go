package train

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/drakos74/market-predictor/internal/math/ml"
	"github.com/drakos74/market-predictor/internal/metrics"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/drakos74/market-predictor/internal/storage"
	"github.com/rs/zerolog/log"
)

// Reason explains why the epoch loop stopped.
type Reason string

const (
	PatienceReason  Reason = "patience"
	EpochsReason    Reason = "epochs"
	CancelledReason Reason = "cancelled"
)

// Learner is a model trained epoch by epoch.
type Learner interface {
	// Epoch runs one training pass and returns the training loss and accuracy.
	Epoch(x [][]float64, y []int) (loss, accuracy float64)
	// Validate returns the loss and accuracy on held out rows.
	Validate(x [][]float64, y []int) (loss, accuracy float64)
	// Snapshot returns a detached copy of the current model.
	Snapshot() model.Classifier
}

// Epoch is the training history entry of one epoch.
type Epoch struct {
	Epoch       int     `json:"epoch"`
	Loss        float64 `json:"loss"`
	Accuracy    float64 `json:"accuracy"`
	ValLoss     float64 `json:"val_loss"`
	ValAccuracy float64 `json:"val_accuracy"`
}

// Result is the outcome of the epoch loop.
// Model is the snapshot of the best epoch, never the last one.
type Result struct {
	Model     model.Classifier `json:"-"`
	History   []Epoch          `json:"history"`
	BestEpoch int              `json:"best_epoch"`
	BestLoss  float64          `json:"best_loss"`
	Reason    Reason           `json:"reason"`
}

// stopper tracks the validation loss for early stopping.
type stopper struct {
	patience  int
	wait      int
	best      float64
	bestEpoch int
}

func newStopper(patience int) *stopper {
	return &stopper{
		patience: patience,
		best:     math.Inf(1),
	}
}

// observe records the epoch loss and returns true if it improves on the best one so far.
func (s *stopper) observe(epoch int, loss float64) bool {
	if loss < s.best {
		s.best = loss
		s.bestEpoch = epoch
		s.wait = 0
		return true
	}
	s.wait++
	return false
}

func (s *stopper) exhausted() bool {
	return s.wait >= s.patience
}

// SequenceTrainer runs the epoch loop of the network with early stopping.
type SequenceTrainer struct {
	cfg         Config
	kind        model.Kind
	pair        string
	run         int64
	checkpoints storage.Persistence
	journal     storage.Persistence
}

// Sequence creates a new network trainer, without checkpoints.
func Sequence(cfg Config) *SequenceTrainer {
	return &SequenceTrainer{
		cfg:         cfg,
		kind:        model.NetworkKind,
		run:         time.Now().Unix(),
		checkpoints: storage.NewVoidStorage(),
		journal:     storage.NewVoidStorage(),
	}
}

// WithPair sets the pair the checkpoints are stored under.
func (s *SequenceTrainer) WithPair(pair string) *SequenceTrainer {
	s.pair = pair
	return s
}

// WithCheckpoints stores the model of every improving epoch.
func (s *SequenceTrainer) WithCheckpoints(checkpoints storage.Persistence) *SequenceTrainer {
	s.checkpoints = checkpoints
	return s
}

// WithJournal appends every epoch to the journal of the run.
func (s *SequenceTrainer) WithJournal(journal storage.Persistence, run int64) *SequenceTrainer {
	s.journal = journal
	s.run = run
	return s
}

// Train fits a new network on the given rows.
func (s *SequenceTrainer) Train(ctx context.Context, x [][]float64, y []int) (*Result, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training rows: %w", model.ConfigErr)
	}
	learner, err := ml.NewLearner(s.cfg.Network, len(x[0]))
	if err != nil {
		return nil, fmt.Errorf("could not create network: %w", err)
	}
	return s.Fit(ctx, learner, x, y)
}

// Fit runs the epoch loop for the learner.
// The trailing part of the rows is held out for validation.
// The loop stops when the validation loss has not improved for `patience` epochs,
// after the maximum number of epochs, or when the context is done.
func (s *SequenceTrainer) Fit(ctx context.Context, learner Learner, x [][]float64, y []int) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("rows and labels differ '%d' vs '%d': %w", len(x), len(y), model.ConfigErr)
	}
	nTrain := int(float64(len(x)) * (1 - s.cfg.Sequence.Validation))
	if nTrain == 0 || nTrain == len(x) {
		return nil, fmt.Errorf("cannot hold out %v of %d rows for validation: %w",
			s.cfg.Sequence.Validation, len(x), model.ConfigErr)
	}
	xTrain, yTrain := x[:nTrain], y[:nTrain]
	xVal, yVal := x[nTrain:], y[nTrain:]

	kind := string(s.kind)
	stop := newStopper(s.cfg.Sequence.Patience)
	result := &Result{
		History: make([]Epoch, 0, s.cfg.Sequence.Epochs),
		Reason:  EpochsReason,
	}

	for epoch := 1; epoch <= s.cfg.Sequence.Epochs; epoch++ {
		if ctx.Err() != nil {
			result.Reason = CancelledReason
			break
		}

		loss, acc := learner.Epoch(xTrain, yTrain)
		valLoss, valAcc := learner.Validate(xVal, yVal)
		e := Epoch{
			Epoch:       epoch,
			Loss:        loss,
			Accuracy:    acc,
			ValLoss:     valLoss,
			ValAccuracy: valAcc,
		}
		result.History = append(result.History, e)
		metrics.Observer.Epoch(kind, loss, valLoss)

		k := storage.Key{Hash: s.run, Pair: s.pair, Label: kind}
		if err := s.journal.Store(k, e); err != nil {
			log.Warn().Err(err).Int("epoch", epoch).Msg("could not journal epoch")
		}

		improved := stop.observe(epoch, valLoss)
		if improved {
			result.Model = learner.Snapshot()
			s.checkpoint(epoch, result.Model)
		}

		log.Debug().
			Int("epoch", epoch).
			Float64("loss", loss).
			Float64("accuracy", acc).
			Float64("val_loss", valLoss).
			Float64("val_accuracy", valAcc).
			Bool("improved", improved).
			Msg("epoch")

		if stop.exhausted() {
			result.Reason = PatienceReason
			break
		}
	}

	if len(result.History) == 0 {
		return nil, fmt.Errorf("no epoch completed: %w", ctx.Err())
	}
	if result.Model == nil {
		// no epoch improved on an infinite loss
		log.Warn().Int("epochs", len(result.History)).Msg("no improving epoch, keeping the last one")
		result.Model = learner.Snapshot()
		result.BestEpoch = len(result.History)
		result.BestLoss = result.History[len(result.History)-1].ValLoss
	} else {
		result.BestEpoch = stop.bestEpoch
		result.BestLoss = stop.best
	}

	log.Info().
		Str("kind", kind).
		Int("epochs", len(result.History)).
		Int("best-epoch", result.BestEpoch).
		Float64("best-loss", result.BestLoss).
		Str("reason", string(result.Reason)).
		Msg("trained network")

	return result, nil
}

func (s *SequenceTrainer) checkpoint(epoch int, m model.Classifier) {
	k := storage.Key{
		Hash:  int64(epoch),
		Pair:  s.pair,
		Label: string(s.kind),
	}
	err := s.checkpoints.Store(k, m)
	metrics.Observer.Checkpoint(string(s.kind), err == nil)
	if err != nil {
		log.Warn().Err(err).Int("epoch", epoch).Msg("could not store checkpoint")
	}
}
