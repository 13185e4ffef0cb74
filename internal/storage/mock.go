package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MockStorage keeps the stored values in memory.
// Values are kept encoded, so that loading returns a copy.
type MockStorage struct {
	Elements map[Key][]byte
	Keys     []Key
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Elements: make(map[Key][]byte)}
}

func (m *MockStorage) Store(k Key, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode '%+v': %w", k, err)
	}
	m.Elements[k] = b
	m.Keys = append(m.Keys, k)
	return nil
}

func (m *MockStorage) Load(k Key, value interface{}) error {
	b, ok := m.Elements[k]
	if !ok {
		return fmt.Errorf("not found '%v': %w", k, NotFoundErr)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("could not decode '%+v': %s: %w", k, err.Error(), CouldNotLoadErr)
	}
	return nil
}

// FailingErr is the error returned by the FailingStorage.
var FailingErr = errors.New("storage failure")

// FailingStorage rejects every call.
type FailingStorage struct {
	Calls int
}

func NewFailingStorage() *FailingStorage {
	return &FailingStorage{}
}

func (f *FailingStorage) Store(k Key, value interface{}) error {
	f.Calls++
	return fmt.Errorf("could not store '%+v': %w", k, FailingErr)
}

func (f *FailingStorage) Load(k Key, value interface{}) error {
	f.Calls++
	return fmt.Errorf("could not load '%+v': %w", k, FailingErr)
}
