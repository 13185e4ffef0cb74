package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Validator is a config with checks beyond the struct tags.
type Validator interface {
	Validate() error
}

// Load reads the yaml or json file into v.
// Missing values get their `default` tag value and the result is checked against the `validate` tags.
func Load(file string, v interface{}) error {
	if err := defaults.Set(v); err != nil {
		return fmt.Errorf("could not set defaults: %w", err)
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read config '%s': %w", file, err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, v)
	case ".json":
		err = json.Unmarshal(b, v)
	default:
		return fmt.Errorf("unknown config format '%s'", file)
	}
	if err != nil {
		return fmt.Errorf("could not parse config '%s': %w", file, err)
	}

	if err := validator.New().Struct(v); err != nil {
		return fmt.Errorf("invalid config '%s': %w", file, err)
	}
	if c, ok := v.(Validator); ok {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config '%s': %w", file, err)
		}
	}

	log.Info().Str("file", file).Msg("loaded config")
	return nil
}
