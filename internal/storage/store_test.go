package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type value struct {
	Name  string    `json:"name"`
	Score []float64 `json:"score"`
}

func TestKey_Path(t *testing.T) {
	k := Key{Hash: 12, Pair: "EURUSD", Label: "feed-forward-network"}
	assert.Equal(t, "EURUSD_12_feed-forward-network", k.Path())
}

func TestMockStorage(t *testing.T) {

	s := NewMockStorage()
	k := Key{Hash: 1, Pair: "EURUSD", Label: "v1"}

	var v value
	err := s.Load(k, &v)
	assert.True(t, errors.Is(err, NotFoundErr))

	stored := value{Name: "x", Score: []float64{0.1, 0.2}}
	require.NoError(t, s.Store(k, stored))
	// later mutations do not leak into storage
	stored.Score[0] = 1

	require.NoError(t, s.Load(k, &v))
	assert.Equal(t, value{Name: "x", Score: []float64{0.1, 0.2}}, v)
	assert.Equal(t, []Key{k}, s.Keys)

	var wrong int
	err = s.Load(k, &wrong)
	assert.True(t, errors.Is(err, CouldNotLoadErr))

}

func TestVoidStorage(t *testing.T) {
	s, err := VoidShard("table")("shard")
	require.NoError(t, err)
	assert.NoError(t, s.Store(Key{}, 1))
	var v int
	assert.True(t, errors.Is(s.Load(Key{}, &v), NotFoundErr))
}

func TestFailingStorage(t *testing.T) {
	s := NewFailingStorage()
	assert.True(t, errors.Is(s.Store(Key{}, 1), FailingErr))
	var v int
	assert.True(t, errors.Is(s.Load(Key{}, &v), FailingErr))
	assert.Equal(t, 2, s.Calls)
}
