package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type window struct {
	Size  int     `yaml:"size" json:"size" default:"5" validate:"gt=0"`
	Width float64 `yaml:"width" json:"width" default:"2"`
}

type sample struct {
	Name    string `yaml:"name" json:"name" default:"sample" validate:"required"`
	Windows []int  `yaml:"windows" json:"windows" default:"[1,2]" validate:"min=1"`
	Window  window `yaml:"window" json:"window"`
}

func (s sample) Validate() error {
	if s.Name == "invalid" {
		return assert.AnError
	}
	return nil
}

func write(t *testing.T, name, content string) string {
	f := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(f, []byte(content), 0644))
	return f
}

func TestLoad(t *testing.T) {

	type test struct {
		file   string
		sample sample
		err    bool
	}

	tests := map[string]test{
		"yaml-defaults": {
			file: write(t, "c.yaml", "window:\n  size: 7\n"),
			sample: sample{
				Name:    "sample",
				Windows: []int{1, 2},
				Window:  window{Size: 7, Width: 2},
			},
		},
		"yaml-overrides": {
			file: write(t, "c.yml", "name: other\nwindows: [3]\nwindow:\n  width: 1.5\n"),
			sample: sample{
				Name:    "other",
				Windows: []int{3},
				Window:  window{Size: 5, Width: 1.5},
			},
		},
		"json": {
			file: write(t, "c.json", `{"name":"json","window":{"size":3}}`),
			sample: sample{
				Name:    "json",
				Windows: []int{1, 2},
				Window:  window{Size: 3, Width: 2},
			},
		},
		"invalid-tag": {
			file: write(t, "c.yaml", "window:\n  size: -1\n"),
			err:  true,
		},
		"invalid-validator": {
			file: write(t, "c.yaml", "name: invalid\n"),
			err:  true,
		},
		"unknown-format": {
			file: write(t, "c.toml", "name = 'x'"),
			err:  true,
		},
		"broken": {
			file: write(t, "c.yaml", "window: [\n"),
			err:  true,
		},
		"missing": {
			file: filepath.Join(t.TempDir(), "missing.yaml"),
			err:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var s sample
			err := Load(tt.file, &s)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sample, s)
		})
	}

}
