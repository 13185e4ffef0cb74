package indicator

import (
	"errors"
	"fmt"
	"math"
	"testing"

	coinmath "github.com/drakos74/market-predictor/internal/math"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(bars []model.Bar) []float64 {
	cc := make([]float64, len(bars))
	for i, b := range bars {
		cc[i] = b.Close
	}
	return cc
}

func mean(vv []float64) float64 {
	s := 0.0
	for _, v := range vv {
		s += v
	}
	return s / float64(len(vv))
}

func sampleStd(vv []float64) float64 {
	m := mean(vv)
	s := 0.0
	for _, v := range vv {
		s += (v - m) * (v - m)
	}
	return math.Sqrt(s / float64(len(vv)-1))
}

func ema(vv []float64, span int) []float64 {
	alpha := 2 / (float64(span) + 1)
	out := make([]float64, len(vv))
	for i, v := range vv {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Config{
		Short: 5, Medium: 20, Long: 50,
		Fast: 12, Slow: 26, Signal: 9,
		RSI:        14,
		Bands:      20,
		Width:      2,
		Stochastic: 14,
		Smoothing:  3,
		ATR:        14,
		Momentum:   10,
	}, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 49, cfg.Warmup())
	assert.Equal(t, []string{
		"sma5", "sma20", "sma50", "ema12", "ema26",
		"macd", "macd_signal", "macd_hist", "rsi",
		"bb_middle", "bb_std", "bb_upper", "bb_lower",
		"stoch_k", "stoch_d", "tr", "atr", "momentum", "pct_change",
	}, cfg.Names())
}

func TestNew_InvalidConfig(t *testing.T) {

	type test struct {
		update func(cfg Config) Config
	}

	tests := map[string]test{
		"zero-window": {
			update: func(cfg Config) Config {
				cfg.Short = 0
				return cfg
			},
		},
		"medium-not-longer": {
			update: func(cfg Config) Config {
				cfg.Medium = cfg.Short
				return cfg
			},
		},
		"slow-faster-than-fast": {
			update: func(cfg Config) Config {
				cfg.Slow = 5
				return cfg
			},
		},
		"single-bar-bands": {
			update: func(cfg Config) Config {
				cfg.Bands = 1
				return cfg
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(tt.update(DefaultConfig()))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, model.ConfigErr))
		})
	}

}

func TestEngine_Warmup(t *testing.T) {

	bars := coinmath.Walk(1, 300, 1.085, 0.0001, 0.002, 0.0005)

	engine, err := New(DefaultConfig())
	require.NoError(t, err)

	out, err := engine.Compute(bars)
	require.NoError(t, err)

	warmup := engine.Config().Warmup()
	assert.Equal(t, len(bars)-warmup, len(out))
	assert.Equal(t, bars[warmup].Time, out[0].Time)
	assert.Equal(t, bars[len(bars)-1], out[len(out)-1].Bar)

	for _, bar := range out {
		assert.Equal(t, len(engine.Names()), len(bar.Indicators))
		for name, v := range bar.Indicators {
			assert.False(t, math.IsNaN(v), "nan for %s", name)
			assert.False(t, math.IsInf(v, 0), "inf for %s", name)
		}
	}

}

func TestEngine_WindowIsNeverPartial(t *testing.T) {

	bars := coinmath.Walk(2, 120, 1.085, 0, 0.002, 0.0005)

	for _, w := range []int{3, 7, 30, 60} {
		t.Run(fmt.Sprintf("window-%d", w), func(t *testing.T) {
			cfg := Config{
				Short: 1, Medium: 2, Long: w,
				Fast: 1, Slow: 2, Signal: 1,
				RSI: 1, Bands: 2, Width: 2,
				Stochastic: 1, Smoothing: 1,
				ATR: 1, Momentum: 1,
			}
			engine, err := New(cfg)
			require.NoError(t, err)
			out, err := engine.Compute(bars)
			require.NoError(t, err)

			// the first w-1 bars cannot carry the long average
			assert.Equal(t, len(bars)-(w-1), len(out))
			assert.Equal(t, bars[w-1].Time, out[0].Time)
			for i, bar := range out {
				expected := mean(closes(bars[i : i+w]))
				assert.InDelta(t, expected, bar.Indicators[SMA(w)], 1e-9)
			}
		})
	}

}

func TestEngine_Values(t *testing.T) {

	bars := coinmath.Walk(3, 200, 1.085, 0.0001, 0.002, 0.0005)
	cc := closes(bars)

	cfg := DefaultConfig()
	engine, err := New(cfg)
	require.NoError(t, err)
	out, err := engine.Compute(bars)
	require.NoError(t, err)

	fast := ema(cc, cfg.Fast)
	slow := ema(cc, cfg.Slow)
	macd := make([]float64, len(cc))
	for i := range cc {
		macd[i] = fast[i] - slow[i]
	}
	signal := ema(macd, cfg.Signal)

	offset := cfg.Warmup()
	for j, bar := range out {
		i := j + offset

		assert.InDelta(t, mean(cc[i-4:i+1]), bar.Indicators["sma5"], 1e-9)
		assert.InDelta(t, mean(cc[i-19:i+1]), bar.Indicators["sma20"], 1e-9)
		assert.InDelta(t, mean(cc[i-49:i+1]), bar.Indicators["sma50"], 1e-9)

		assert.InDelta(t, fast[i], bar.Indicators["ema12"], 1e-12)
		assert.InDelta(t, slow[i], bar.Indicators["ema26"], 1e-12)
		assert.InDelta(t, macd[i], bar.Indicators[MACD], 1e-12)
		assert.InDelta(t, signal[i], bar.Indicators[MACDSignal], 1e-12)
		assert.InDelta(t, macd[i]-signal[i], bar.Indicators[MACDHist], 1e-12)

		std := sampleStd(cc[i-19 : i+1])
		assert.InDelta(t, std, bar.Indicators[BBStd], 1e-7)
		assert.InDelta(t, bar.Indicators[BBMiddle]+2*std, bar.Indicators[BBUpper], 1e-7)
		assert.InDelta(t, bar.Indicators[BBMiddle]-2*std, bar.Indicators[BBLower], 1e-7)

		var gain, loss float64
		for k := i - 13; k <= i; k++ {
			d := cc[k] - cc[k-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		expectedRSI := 100.0
		if loss > 0 {
			expectedRSI = 100 - 100/(1+gain/loss)
		}
		assert.InDelta(t, expectedRSI, bar.Indicators[RSI], 1e-6)
		assert.True(t, bar.Indicators[RSI] >= 0 && bar.Indicators[RSI] <= 100)

		hi, lo := math.Inf(-1), math.Inf(1)
		for k := i - 13; k <= i; k++ {
			hi = math.Max(hi, bars[k].High)
			lo = math.Min(lo, bars[k].Low)
		}
		assert.InDelta(t, 100*(cc[i]-lo)/(hi-lo), bar.Indicators[StochK], 1e-9)
		assert.True(t, bar.Indicators[StochK] >= 0 && bar.Indicators[StochK] <= 100)
		assert.True(t, bar.Indicators[StochD] >= 0 && bar.Indicators[StochD] <= 100)

		tr := math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-cc[i-1]), math.Abs(bars[i].Low-cc[i-1])))
		assert.InDelta(t, tr, bar.Indicators[TR], 1e-12)

		assert.InDelta(t, cc[i]-cc[i-10], bar.Indicators[Momentum], 1e-12)
		assert.InDelta(t, (cc[i]-cc[i-1])/cc[i-1], bar.Indicators[PctChange], 1e-12)
	}

}

func TestEngine_EdgeCases(t *testing.T) {

	cfg := Config{
		Short: 2, Medium: 3, Long: 4,
		Fast: 2, Slow: 3, Signal: 2,
		RSI: 3, Bands: 3, Width: 2,
		Stochastic: 3, Smoothing: 2,
		ATR: 3, Momentum: 2,
	}
	engine, err := New(cfg)
	require.NoError(t, err)

	t.Run("rising", func(t *testing.T) {
		out, err := engine.Compute(coinmath.Bars(coinmath.Series(0.01, 20)[1:]...))
		require.NoError(t, err)
		require.NotEmpty(t, out)
		for _, bar := range out {
			// no losses at all
			assert.Equal(t, 100.0, bar.Indicators[RSI])
		}
	})

	t.Run("flat", func(t *testing.T) {
		cc := make([]float64, 20)
		for i := range cc {
			cc[i] = 1.1
		}
		out, err := engine.Compute(coinmath.Bars(cc...))
		require.NoError(t, err)
		require.NotEmpty(t, out)
		for _, bar := range out {
			assert.Equal(t, 100.0, bar.Indicators[RSI])
			assert.Equal(t, 50.0, bar.Indicators[StochK])
			assert.Equal(t, 50.0, bar.Indicators[StochD])
			assert.Equal(t, 0.0, bar.Indicators[PctChange])
			assert.InDelta(t, 0.0, bar.Indicators[BBStd], 1e-6)
			assert.Equal(t, 0.0, bar.Indicators[Momentum])
		}
	})

	t.Run("zero-price", func(t *testing.T) {
		out, err := engine.Compute(coinmath.Bars(0, 0, 0, 0, 0, 0, 0, 0, 1, 2))
		require.NoError(t, err)
		require.NotEmpty(t, out)
		for _, bar := range out {
			for name, v := range bar.Indicators {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "undefined %s", name)
			}
		}
		// change from a zero close
		assert.Equal(t, 0.0, out[len(out)-2].Indicators[PctChange])
	})

	t.Run("falling", func(t *testing.T) {
		cc := coinmath.Series(-0.01, 20)
		for i := range cc {
			cc[i] += 1
		}
		out, err := engine.Compute(coinmath.Bars(cc...))
		require.NoError(t, err)
		for _, bar := range out {
			assert.Equal(t, 0.0, bar.Indicators[RSI])
			assert.Equal(t, 0.0, bar.Indicators[StochK])
		}
	})

	t.Run("too-short", func(t *testing.T) {
		out, err := engine.Compute(coinmath.Bars(1, 2, 3))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

}

func TestEngine_Order(t *testing.T) {

	engine, err := New(DefaultConfig())
	require.NoError(t, err)

	bars := coinmath.Bars(1, 2, 3)
	bars[1], bars[2] = bars[2], bars[1]
	_, err = engine.Compute(bars)
	assert.True(t, errors.Is(err, model.ConfigErr))

	bars = coinmath.Bars(1, 2, 3)
	bars[2].Time = bars[1].Time
	_, err = engine.Compute(bars)
	assert.True(t, errors.Is(err, model.ConfigErr))

}

// average of the last n volumes
type volumeAverage struct {
	n int
}

func (v volumeAverage) Name() string {
	return fmt.Sprintf("volume_sma%d", v.n)
}

func (v volumeAverage) Version() string {
	return "v1"
}

func (v volumeAverage) Reducer() Reducer {
	var vv []float64
	return func(bar model.Bar) (float64, bool) {
		vv = append(vv, bar.Volume)
		if len(vv) < v.n {
			return 0, false
		}
		return mean(vv[len(vv)-v.n:]), true
	}
}

func TestEngine_Extension(t *testing.T) {

	bars := coinmath.Walk(4, 100, 1.085, 0, 0.002, 0.0005)

	engine, err := New(DefaultConfig(), volumeAverage{n: 60})
	require.NoError(t, err)

	schema := engine.Schema()
	assert.Equal(t, "volume_sma60", schema.Features[len(schema.Features)-1])
	assert.Equal(t, map[string]string{"volume_sma60": "v1"}, schema.Extensions)
	assert.NoError(t, schema.Validate())

	out, err := engine.Compute(bars)
	require.NoError(t, err)
	// the extension window is the longest one
	assert.Equal(t, len(bars)-59, len(out))
	for _, bar := range out {
		_, ok := bar.Indicators["volume_sma60"]
		assert.True(t, ok)
	}

	// the same pass can be repeated with fresh reducers
	again, err := engine.Compute(bars)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = New(DefaultConfig(), volumeAverage{n: 5}, volumeAverage{n: 5})
	assert.True(t, errors.Is(err, model.ConfigErr))

}
