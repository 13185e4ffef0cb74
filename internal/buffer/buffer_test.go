package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Push(t *testing.T) {

	b := NewBuffer(10)

	for i := 0; i < 100; i++ {
		l, ok := b.Push(float64(i))
		if i < 10 {
			assert.False(t, ok)
			assert.Equal(t, i+1, b.Len())
		} else {
			assert.True(t, ok)
			assert.Equal(t, float64(i-10), l)
			assert.Equal(t, 10, b.Len())
			assert.True(t, b.Full())
			assert.Equal(t, float64(i-9), b.First())
		}
		assert.Equal(t, float64(i), b.Last())
	}

	vv := b.Get()
	assert.Equal(t, 10, len(vv))
	assert.Equal(t, 90.0, vv[0])
	assert.Equal(t, 99.0, vv[9])

}
