package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/drakos74/market-predictor/internal/dataset"
	"github.com/drakos74/market-predictor/internal/math/ml"
	"github.com/drakos74/market-predictor/internal/metrics"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/drakos74/market-predictor/internal/storage"
	jsonstore "github.com/drakos74/market-predictor/internal/storage/file/json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ModelFile     = "model.json"
	TransformFile = "transform.json"
	SchemaFile    = "schema.json"
	ManifestFile  = "manifest.json"
)

// Manifest describes a stored model version.
type Manifest struct {
	ID       string     `json:"id"`
	Kind     model.Kind `json:"kind"`
	Version  string     `json:"version"`
	Created  time.Time  `json:"created"`
	Features int        `json:"features"`
}

// Artifact is a trained classifier together with the transform and schema it was trained with.
// The three only make sense as a whole.
type Artifact struct {
	Manifest   Manifest
	Classifier model.Classifier
	Scaler     *dataset.Scaler
	Schema     model.Schema
}

// envelope tags the encoded classifier with its kind.
type envelope struct {
	Kind  model.Kind      `json:"kind"`
	Model json.RawMessage `json:"model"`
}

// Store keeps versioned artifacts under <dir>/<kind>/<version>.
// A version is written once and never modified.
type Store struct {
	dir string
}

// New creates a new artifact store in the given directory.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(kind model.Kind, version string) string {
	return filepath.Join(s.dir, string(kind), version)
}

// Save stores the classifier, scaler and schema as the given version.
func (s *Store) Save(c model.Classifier, scaler *dataset.Scaler, schema model.Schema, kind model.Kind, version string) (*Manifest, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	if c.Kind() != kind {
		return nil, fmt.Errorf("classifier is '%s' but saved as '%s': %w", c.Kind(), kind, model.ConfigErr)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if err := consistent(c, scaler, schema); err != nil {
		return nil, fmt.Errorf("cannot save '%s/%s': %s: %w", kind, version, err.Error(), model.ConfigErr)
	}

	target := s.path(kind, version)
	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("version '%s/%s': %w", kind, version, storage.ExistsErr)
	}

	parent := filepath.Join(s.dir, string(kind))
	if err := os.MkdirAll(parent, os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not make dir: %s: %w", parent, err)
	}
	tmp, err := ioutil.TempDir(parent, fmt.Sprintf(".%s-", version))
	if err != nil {
		return nil, fmt.Errorf("could not create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	encoded, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("could not encode classifier: %w", err)
	}
	manifest := Manifest{
		ID:       uuid.New().String(),
		Kind:     kind,
		Version:  version,
		Created:  time.Now().UTC(),
		Features: c.Features(),
	}
	for file, value := range map[string]interface{}{
		ModelFile:     envelope{Kind: kind, Model: encoded},
		TransformFile: scaler,
		SchemaFile:    schema,
		ManifestFile:  manifest,
	} {
		if err := jsonstore.Save(tmp, file, value); err != nil {
			return nil, fmt.Errorf("could not save '%s': %w", file, err)
		}
	}

	if err := os.Rename(tmp, target); err != nil {
		if _, statErr := os.Stat(target); statErr == nil {
			return nil, fmt.Errorf("version '%s/%s': %w", kind, version, storage.ExistsErr)
		}
		return nil, fmt.Errorf("could not publish '%s': %w", target, err)
	}

	metrics.Observer.Artifact(string(kind))
	log.Info().
		Str("id", manifest.ID).
		Str("kind", string(kind)).
		Str("version", version).
		Int("features", manifest.Features).
		Str("path", target).
		Msg("saved artifact")

	return &manifest, nil
}

// Load loads the given version.
// An absent version is not found, a version that exists but cannot be fully loaded is inconsistent.
func (s *Store) Load(kind model.Kind, version string) (*Artifact, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	dir := s.path(kind, version)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("version '%s/%s': %w", kind, version, storage.NotFoundErr)
	}

	var manifest Manifest
	if err := load(dir, ManifestFile, &manifest); err != nil {
		return nil, err
	}
	if manifest.Kind != kind || manifest.Version != version {
		return nil, inconsistent(dir, fmt.Sprintf("manifest is for '%s/%s'", manifest.Kind, manifest.Version))
	}

	var schema model.Schema
	if err := load(dir, SchemaFile, &schema); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, inconsistent(dir, err.Error())
	}

	var scaler dataset.Scaler
	if err := load(dir, TransformFile, &scaler); err != nil {
		return nil, err
	}

	var env envelope
	if err := load(dir, ModelFile, &env); err != nil {
		return nil, err
	}
	if env.Kind != kind {
		return nil, inconsistent(dir, fmt.Sprintf("model is '%s'", env.Kind))
	}
	c, err := decode(env)
	if err != nil {
		return nil, inconsistent(dir, err.Error())
	}

	if err := consistent(c, &scaler, schema); err != nil {
		return nil, inconsistent(dir, err.Error())
	}
	if manifest.Features != c.Features() {
		return nil, inconsistent(dir, fmt.Sprintf("manifest declares %d features but model has %d", manifest.Features, c.Features()))
	}

	log.Debug().
		Str("id", manifest.ID).
		Str("kind", string(kind)).
		Str("version", version).
		Msg("loaded artifact")

	return &Artifact{
		Manifest:   manifest,
		Classifier: c,
		Scaler:     &scaler,
		Schema:     schema,
	}, nil
}

// Versions lists the stored versions of the kind in lexical order.
func (s *Store) Versions(kind model.Kind) ([]string, error) {
	files, err := ioutil.ReadDir(filepath.Join(s.dir, string(kind)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("could not list versions of '%s': %w", kind, err)
	}
	versions := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() && !strings.HasPrefix(f.Name(), ".") {
			versions = append(versions, f.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func decode(env envelope) (model.Classifier, error) {
	switch env.Kind {
	case model.ForestKind:
		var f ml.Forest
		if err := json.Unmarshal(env.Model, &f); err != nil {
			return nil, err
		}
		if err := f.Check(); err != nil {
			return nil, err
		}
		return &f, nil
	case model.BoostKind:
		var b ml.Boost
		if err := json.Unmarshal(env.Model, &b); err != nil {
			return nil, err
		}
		if err := b.Check(); err != nil {
			return nil, err
		}
		return &b, nil
	case model.NetworkKind:
		var n ml.Network
		if err := json.Unmarshal(env.Model, &n); err != nil {
			return nil, err
		}
		if err := n.Init(); err != nil {
			return nil, err
		}
		return &n, nil
	}
	return nil, fmt.Errorf("unknown classifier kind '%s'", env.Kind)
}

// consistent checks that the schema, the scaler and the classifier agree on the feature count.
func consistent(c model.Classifier, scaler *dataset.Scaler, schema model.Schema) error {
	if scaler == nil {
		return fmt.Errorf("no transform")
	}
	if len(scaler.Mean) != len(scaler.Scale) {
		return fmt.Errorf("transform has %d means and %d scales", len(scaler.Mean), len(scaler.Scale))
	}
	if schema.Len() != scaler.Width() || schema.Len() != c.Features() {
		return fmt.Errorf("schema has %d features, transform %d and model %d", schema.Len(), scaler.Width(), c.Features())
	}
	return nil
}

// load reads one piece of the artifact, any failure makes the artifact inconsistent.
func load(dir, file string, value interface{}) error {
	if err := jsonstore.Load(dir, file, value); err != nil {
		return inconsistent(dir, err.Error())
	}
	return nil
}

// inconsistent does not wrap the cause, so that a missing piece is never reported as not found.
func inconsistent(dir, reason string) error {
	return fmt.Errorf("artifact '%s': %s: %w", dir, reason, storage.InconsistentErr)
}

func checkVersion(version string) error {
	if version == "" || strings.HasPrefix(version, ".") || strings.ContainsAny(version, `/\`) {
		return fmt.Errorf("invalid version '%s': %w", version, model.ConfigErr)
	}
	return nil
}
