package json

import (
	"errors"
	"testing"

	"github.com/drakos74/market-predictor/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Event struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Index int    `json:"index"`
}

func newEvent(i int) Event {
	return Event{
		Name:  "test",
		ID:    uuid.New().String(),
		Index: i,
	}
}

func TestLogger_StoreAndLoad(t *testing.T) {

	logger := NewLogger(t.TempDir())

	k := storage.Key{
		Hash:  1,
		Pair:  "pair",
		Label: "label",
	}

	var loadedEvents []Event
	err := logger.Load(k, &loadedEvents)
	assert.True(t, errors.Is(err, storage.NotFoundErr))

	events := make([]Event, 0)
	for i := 0; i < 10; i++ {
		ev := newEvent(i)
		events = append(events, ev)
		err := logger.Store(k, ev)
		assert.NoError(t, err)
	}

	err = logger.Load(k, &loadedEvents)
	require.NoError(t, err)
	assert.Equal(t, events, loadedEvents)

	// other hashes are separate logs
	other := k
	other.Hash = 2
	require.NoError(t, logger.Store(other, newEvent(11)))
	loadedEvents = nil
	require.NoError(t, logger.Load(other, &loadedEvents))
	assert.Equal(t, 1, len(loadedEvents))

}
