package indicator

import (
	"fmt"
	"math"

	"github.com/drakos74/market-predictor/internal/buffer"
	"github.com/drakos74/market-predictor/internal/model"
	"github.com/rs/zerolog/log"
)

// Engine computes the derived indicators for an ordered bar sequence.
type Engine struct {
	cfg        Config
	extensions []Extension
}

// New creates a new indicator engine.
func New(cfg Config, extensions ...Extension) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator config '%+v': %s: %w", cfg, err.Error(), model.ConfigErr)
	}
	seen := make(map[string]struct{})
	for _, name := range append(cfg.Names(), model.RawFields...) {
		seen[name] = struct{}{}
	}
	for _, ext := range extensions {
		if _, ok := seen[ext.Name()]; ok {
			return nil, fmt.Errorf("extension '%s' collides with an existing field: %w", ext.Name(), model.ConfigErr)
		}
		seen[ext.Name()] = struct{}{}
	}
	return &Engine{
		cfg:        cfg,
		extensions: extensions,
	}, nil
}

// Config returns the engine window config.
func (e *Engine) Config() Config {
	return e.cfg
}

// Names returns all derived field names, extensions last.
func (e *Engine) Names() []string {
	names := e.cfg.Names()
	for _, ext := range e.extensions {
		names = append(names, ext.Name())
	}
	return names
}

// Schema returns the full feature schema : raw fields followed by all derived fields.
func (e *Engine) Schema() model.Schema {
	schema := model.NewSchema(append(append([]string{}, model.RawFields...), e.Names()...)...)
	if len(e.extensions) > 0 {
		schema.Extensions = make(map[string]string, len(e.extensions))
		for _, ext := range e.extensions {
			schema.Extensions[ext.Name()] = ext.Version()
		}
	}
	return schema
}

// Compute derives the indicators for the given bars.
// Bars for which any indicator is still warming up are dropped, never zero filled.
func (e *Engine) Compute(bars []model.Bar) ([]model.IndicatorizedBar, error) {
	if err := model.CheckOrder(bars); err != nil {
		return nil, err
	}

	st := newState(e.cfg, e.extensions)
	out := make([]model.IndicatorizedBar, 0, len(bars))
	for _, bar := range bars {
		if indicators, ok := st.push(bar); ok {
			out = append(out, model.IndicatorizedBar{
				Bar:        bar,
				Indicators: indicators,
			})
		}
	}

	log.Debug().
		Int("bars", len(bars)).
		Int("indicatorized", len(out)).
		Int("warmup", e.cfg.Warmup()).
		Int("extensions", len(e.extensions)).
		Msg("computed indicators")

	return out, nil
}

// state carries the running aggregates for one pass over a bar sequence.
type state struct {
	cfg Config

	short, medium, long *buffer.Stats

	fast, slow, signal *buffer.EMA
	macdCount          int

	gains, losses *buffer.Stats

	bands *buffer.Stats

	high, low *buffer.Extremum
	stochD    *buffer.Stats

	atr *buffer.Stats

	lag *buffer.Buffer

	prev    float64
	hasPrev bool

	extensions []Extension
	reducers   []Reducer
}

func newState(cfg Config, extensions []Extension) *state {
	reducers := make([]Reducer, len(extensions))
	for i, ext := range extensions {
		reducers[i] = ext.Reducer()
	}
	return &state{
		cfg:        cfg,
		short:      buffer.NewStats(cfg.Short),
		medium:     buffer.NewStats(cfg.Medium),
		long:       buffer.NewStats(cfg.Long),
		fast:       buffer.NewEMA(cfg.Fast),
		slow:       buffer.NewEMA(cfg.Slow),
		signal:     buffer.NewEMA(cfg.Signal),
		gains:      buffer.NewStats(cfg.RSI),
		losses:     buffer.NewStats(cfg.RSI),
		bands:      buffer.NewStats(cfg.Bands),
		high:       buffer.NewMax(cfg.Stochastic),
		low:        buffer.NewMin(cfg.Stochastic),
		stochD:     buffer.NewStats(cfg.Smoothing),
		atr:        buffer.NewStats(cfg.ATR),
		lag:        buffer.NewBuffer(cfg.Momentum + 1),
		extensions: extensions,
		reducers:   reducers,
	}
}

// push adds the bar to all reducers and returns the indicators,
// if every one of them is defined for this bar.
func (s *state) push(bar model.Bar) (model.Indicators, bool) {
	c := bar.Close
	indicators := make(model.Indicators, len(s.cfg.Names())+len(s.reducers))
	ok := true

	set := func(name string, ready bool, v float64) {
		if ready {
			indicators[name] = v
		} else {
			ok = false
		}
	}

	// moving averages
	for _, sma := range []struct {
		window int
		stats  *buffer.Stats
	}{
		{s.cfg.Short, s.short},
		{s.cfg.Medium, s.medium},
		{s.cfg.Long, s.long},
	} {
		sma.stats.Push(c)
		set(SMA(sma.window), sma.stats.Ready(), sma.stats.Avg())
	}

	// convergence - divergence
	fast := s.fast.Push(c)
	slow := s.slow.Push(c)
	macd := fast - slow
	signal := s.signal.Push(macd)
	macdReady := s.fast.Ready() && s.slow.Ready()
	if macdReady {
		s.macdCount++
	}
	signalReady := macdReady && s.macdCount >= s.cfg.Signal
	set(EMA(s.cfg.Fast), s.fast.Ready(), fast)
	set(EMA(s.cfg.Slow), s.slow.Ready(), slow)
	set(MACD, macdReady, macd)
	set(MACDSignal, signalReady, signal)
	set(MACDHist, signalReady, macd-signal)

	// relative strength
	if s.hasPrev {
		d := c - s.prev
		s.gains.Push(math.Max(d, 0))
		s.losses.Push(math.Max(-d, 0))
	}
	set(RSI, s.gains.Ready(), rsi(s.gains.Avg(), s.losses.Avg()))

	// volatility bands
	s.bands.Push(c)
	mid := s.bands.Avg()
	std := s.bands.SampleStDev()
	bandsReady := s.bands.Ready()
	set(BBMiddle, bandsReady, mid)
	set(BBStd, bandsReady, std)
	set(BBUpper, bandsReady, mid+s.cfg.Width*std)
	set(BBLower, bandsReady, mid-s.cfg.Width*std)

	// stochastic oscillator
	s.high.Push(bar.High)
	s.low.Push(bar.Low)
	kReady := s.high.Ready()
	var k float64
	if kReady {
		k = stochastic(c, s.high.Value(), s.low.Value())
		s.stochD.Push(k)
	}
	set(StochK, kReady, k)
	set(StochD, kReady && s.stochD.Ready(), s.stochD.Avg())

	// true range
	var tr float64
	if s.hasPrev {
		tr = trueRange(bar, s.prev)
		s.atr.Push(tr)
	}
	set(TR, s.hasPrev, tr)
	set(ATR, s.atr.Ready(), s.atr.Avg())

	// momentum and change
	s.lag.Push(c)
	set(Momentum, s.lag.Full(), c-s.lag.First())
	set(PctChange, s.hasPrev, change(c, s.prev))

	for i, reducer := range s.reducers {
		v, ready := reducer(bar)
		set(s.extensions[i].Name(), ready, v)
	}

	s.prev = c
	s.hasPrev = true

	return indicators, ok
}

// rsi maps the average gain and loss to [0,100].
// No losses at all means maximum strength.
func rsi(gain, loss float64) float64 {
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// stochastic places the close within the high-low range on [0,100].
// A flat range has no position, it's reported as the middle.
func stochastic(c, high, low float64) float64 {
	r := high - low
	if r == 0 {
		return 50
	}
	k := 100 * (c - low) / r
	// closes outside the bar range come from bad data, keep the oscillator bounded
	return math.Max(0, math.Min(100, k))
}

func trueRange(bar model.Bar, prev float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prev), math.Abs(bar.Low-prev)))
}

func change(c, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (c - prev) / prev
}
