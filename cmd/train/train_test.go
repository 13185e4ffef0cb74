package main

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRun_Errors(t *testing.T) {

	config := filepath.Join("..", "..", "infra", "config", "pipeline.yaml")
	missing := filepath.Join(t.TempDir(), "missing.json")

	type test struct {
		opts options
	}

	tests := map[string]test{
		"no-bars": {
			opts: options{config: config},
		},
		"missing-config": {
			opts: options{config: filepath.Join(t.TempDir(), "missing.yaml"), bars: missing},
		},
		"missing-bars": {
			opts: options{config: config, bars: missing},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(tt.opts))
		})
	}
}

func TestRun_ReleasesMetricsServer(t *testing.T) {

	addr := freeAddr(t)
	opts := options{
		config:  filepath.Join("..", "..", "infra", "config", "pipeline.yaml"),
		bars:    filepath.Join(t.TempDir(), "missing.json"),
		metrics: addr,
	}
	require.Error(t, run(opts))

	assert.Eventually(t, func() bool {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		return l.Close() == nil
	}, 2*time.Second, 50*time.Millisecond)
}
