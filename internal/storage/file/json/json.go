package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/drakos74/market-predictor/internal/storage"
)

// Save saves the given json struct into the given path with the provided filename.
// The file is written next to its destination and renamed into place,
// so that readers never see a partial file.
func Save(filePath string, fileName string, value interface{}) error {
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
		return fmt.Errorf("could not encode '%s': %w", fileName, err)
	}

	// create the output file
	f, err := ioutil.TempFile(filePath, fmt.Sprintf(".%s.*", fileName))
	if err != nil {
		return fmt.Errorf("could not create file for '%s': %w", fileName, err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	// write the file
	_, err = f.Write(b)
	if err != nil {
		return fmt.Errorf("could not write bytes to file '%v' : %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("could not sync file '%v' : %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file '%v' : %w", f.Name(), err)
	}

	p := filepath.Join(filePath, fileName)
	if err := os.Rename(f.Name(), p); err != nil {
		return fmt.Errorf("could not move file into '%s': %w", p, err)
	}
	return nil
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {

	p := filepath.Join(filePath, fileName)

	data, err := ioutil.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not read file '%s': %w", p, storage.NotFoundErr)
		}
		return fmt.Errorf("could not read file '%s' %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal '%s': %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}

	return nil
}
