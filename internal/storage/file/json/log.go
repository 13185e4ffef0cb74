package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/drakos74/market-predictor/internal/storage"
)

const (
	filename = "%d.events.log"
)

// Logger appends every stored value as a json line to the log of the key.
// Loading decodes the whole log into a slice.
type Logger struct {
	path string
}

// NewLogger creates a new logger under the given folder.
func NewLogger(folder string) *Logger {
	return &Logger{path: folder}
}

func (l *Logger) filePath(k storage.Key) string {
	return path.Join(l.path, k.Pair, k.Label)
}

func (l *Logger) Store(k storage.Key, value interface{}) error {

	filePath := l.filePath(k)

	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value '%+v': %w", value, err)
	}
	f, err := os.OpenFile(path.Join(filePath, fmt.Sprintf(filename, k.Hash)), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}

	defer f.Close()

	if _, err = f.Write(append(b, []byte("\n")...)); err != nil {
		return fmt.Errorf("could not write log file for  '%+v': %w", k, err)
	}
	return nil
}

// Load decodes all the lines of the log into value, which must point to a slice.
func (l *Logger) Load(k storage.Key, value interface{}) error {

	fileName := path.Join(l.filePath(k), fmt.Sprintf(filename, k.Hash))

	b, err := ioutil.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not find log '%s': %w", fileName, storage.NotFoundErr)
		}
		return fmt.Errorf("could not read file '%s': %w", fileName, err)
	}

	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	events := append([]byte("["), bytes.Join(lines, []byte(","))...)
	events = append(events, ']')

	if err := json.Unmarshal(events, value); err != nil {
		return fmt.Errorf("could not decode events of '%s': %s: %w", fileName, err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}
