package pipeline

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/drakos74/market-predictor/infra/config"
	"github.com/drakos74/market-predictor/internal/indicator"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/drakos74/market-predictor/internal/train"
	"github.com/go-playground/validator/v10"
)

// Config is the configuration of a training run.
type Config struct {
	Pair         string           `yaml:"pair" json:"pair" default:"EURUSD" validate:"required"`
	Dir          string           `yaml:"dir" json:"dir" default:"file-storage" validate:"required"`
	Horizons     []int            `yaml:"horizons" json:"horizons" default:"[1,3,5]" validate:"min=1,dive,gt=0"`
	Horizon      int              `yaml:"horizon" json:"horizon" default:"1" validate:"gt=0"`
	TestFraction float64          `yaml:"test_fraction" json:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
	Threshold    float64          `yaml:"threshold" json:"threshold" default:"0.5" validate:"gt=0,lt=1"`
	Kinds        []string         `yaml:"kinds" json:"kinds" default:"[\"tree-ensemble-bagged\",\"tree-ensemble-boosted\",\"feed-forward-network\"]" validate:"min=1"`
	Checkpoints  bool             `yaml:"checkpoints" json:"checkpoints" default:"true"`
	Indicators   indicator.Config `yaml:"indicators" json:"indicators"`
	Training     train.Config     `yaml:"training" json:"training"`
}

// DefaultConfig returns the config with all defaults set.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("could not set pipeline defaults: %s", err.Error()))
	}
	return cfg
}

// LoadConfig loads the config file, with the environment overriding the pair and the storage dir.
func LoadConfig(file string) (*Config, error) {
	var cfg Config
	if err := config.Load(file, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), model.ConfigErr)
	}
	if v := os.Getenv("PREDICTOR_PAIR"); v != "" {
		cfg.Pair = v
	}
	if v := os.Getenv("PREDICTOR_DIR"); v != "" {
		cfg.Dir = v
	}
	return &cfg, nil
}

// Validate checks the config, including the parts that depend on each other.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	found := false
	for _, h := range c.Horizons {
		if h == c.Horizon {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("training horizon %d is not among the labeled horizons %v", c.Horizon, c.Horizons)
	}
	if _, err := c.kinds(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	return c.Training.Validate()
}

func (c Config) kinds() ([]model.Kind, error) {
	kinds := make([]model.Kind, len(c.Kinds))
	seen := make(map[model.Kind]struct{}, len(c.Kinds))
	for i, k := range c.Kinds {
		kind, err := model.ParseKind(k)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[kind]; ok {
			return nil, fmt.Errorf("duplicate kind '%s': %w", kind, model.ConfigErr)
		}
		seen[kind] = struct{}{}
		kinds[i] = kind
	}
	return kinds, nil
}
