package train

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/drakos74/market-predictor/internal/math/ml"
	"github.com/go-playground/validator/v10"
)

// SequenceConfig defines the epoch loop of the network training.
type SequenceConfig struct {
	Epochs     int     `yaml:"epochs" json:"epochs" default:"100" validate:"gt=0"`
	Patience   int     `yaml:"patience" json:"patience" default:"20" validate:"gt=0"`
	Validation float64 `yaml:"validation" json:"validation" default:"0.2" validate:"gt=0,lt=1"`
}

// Config holds the hyperparameters of every classifier kind.
type Config struct {
	Forest   ml.ForestConfig  `yaml:"forest" json:"forest"`
	Boost    ml.BoostConfig   `yaml:"boost" json:"boost"`
	Network  ml.NetworkConfig `yaml:"network" json:"network"`
	Sequence SequenceConfig   `yaml:"sequence" json:"sequence"`
}

// DefaultConfig returns the training config with all defaults set.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("could not set training defaults: %s", err.Error()))
	}
	return cfg
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if len(c.Network.Dropout) > len(c.Network.Hidden) {
		return fmt.Errorf("more dropout rates than hidden layers '%d' vs '%d'",
			len(c.Network.Dropout), len(c.Network.Hidden))
	}
	return nil
}
