package storage

import (
	"errors"
	"fmt"
)

const (
	// ModelDir is the directory of the versioned model artifacts.
	ModelDir = "models"
	// CheckpointDir is the directory of the intermediate training checkpoints.
	CheckpointDir = "checkpoints"
	// HistoryDir is the directory of the training epoch journals.
	HistoryDir = "history"
)

var (
	// DefaultDir is the root of all file storage, if not configured otherwise.
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
	ExistsErr       = errors.New("already exists")
	// InconsistentErr signals a stored item that exists but cannot be trusted.
	InconsistentErr = errors.New("inconsistent")
)

// Key is the storage key for a general implementation
type Key struct {
	Hash  int64  `json:"hash"`
	Pair  string `json:"pair"`
	Label string `json:"label"`
}

func (k Key) Path() string {
	return fmt.Sprintf("%s_%v_%s", k.Pair, k.Hash, k.Label)
}

type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
