package indicator

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config defines the window sizes of the indicators.
// Short, Medium and Long are the simple moving averages windows.
// Fast and Slow are the exponential moving averages spans building the MACD line,
// Signal smooths the MACD line.
// RSI is the relative strength window.
// Bands is the Bollinger window and Width the number of standard deviations of the envelope.
// Stochastic is the high/low range window and Smoothing the %D average window.
// ATR is the true range average window.
// Momentum is the lag used for the momentum.
type Config struct {
	Short      int     `yaml:"short" json:"short" default:"5" validate:"gt=0"`
	Medium     int     `yaml:"medium" json:"medium" default:"20" validate:"gtfield=Short"`
	Long       int     `yaml:"long" json:"long" default:"50" validate:"gtfield=Medium"`
	Fast       int     `yaml:"fast" json:"fast" default:"12" validate:"gt=0"`
	Slow       int     `yaml:"slow" json:"slow" default:"26" validate:"gtfield=Fast"`
	Signal     int     `yaml:"signal" json:"signal" default:"9" validate:"gt=0"`
	RSI        int     `yaml:"rsi" json:"rsi" default:"14" validate:"gt=0"`
	Bands      int     `yaml:"bands" json:"bands" default:"20" validate:"gt=1"`
	Width      float64 `yaml:"width" json:"width" default:"2" validate:"gt=0"`
	Stochastic int     `yaml:"stochastic" json:"stochastic" default:"14" validate:"gt=0"`
	Smoothing  int     `yaml:"smoothing" json:"smoothing" default:"3" validate:"gt=0"`
	ATR        int     `yaml:"atr" json:"atr" default:"14" validate:"gt=0"`
	Momentum   int     `yaml:"momentum" json:"momentum" default:"10" validate:"gt=0"`
}

// DefaultConfig returns the config with all the default windows.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("could not set indicator defaults: %s", err.Error()))
	}
	return cfg
}

// Validate checks the windows are consistent.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// Field names of the derived indicators.
const (
	MACD       = "macd"
	MACDSignal = "macd_signal"
	MACDHist   = "macd_hist"
	RSI        = "rsi"
	BBMiddle   = "bb_middle"
	BBStd      = "bb_std"
	BBUpper    = "bb_upper"
	BBLower    = "bb_lower"
	StochK     = "stoch_k"
	StochD     = "stoch_d"
	TR         = "tr"
	ATR        = "atr"
	Momentum   = "momentum"
	PctChange  = "pct_change"
)

// SMA returns the field name of the simple moving average for the window.
func SMA(window int) string {
	return fmt.Sprintf("sma%d", window)
}

// EMA returns the field name of the exponential moving average for the span.
func EMA(span int) string {
	return fmt.Sprintf("ema%d", span)
}

// Names returns the derived field names in schema order.
func (c Config) Names() []string {
	return []string{
		SMA(c.Short), SMA(c.Medium), SMA(c.Long),
		EMA(c.Fast), EMA(c.Slow),
		MACD, MACDSignal, MACDHist,
		RSI,
		BBMiddle, BBStd, BBUpper, BBLower,
		StochK, StochD,
		TR, ATR,
		Momentum, PctChange,
	}
}

// Warmup returns the number of leading bars dropped before all indicators are defined.
func (c Config) Warmup() int {
	w := 0
	for _, n := range []int{
		c.Short - 1,
		c.Medium - 1,
		c.Long - 1,
		c.Fast - 1,
		c.Slow + c.Signal - 2,
		// close-to-close changes start at the second bar
		c.RSI,
		c.Bands - 1,
		c.Stochastic + c.Smoothing - 2,
		c.ATR,
		c.Momentum,
	} {
		if n > w {
			w = n
		}
	}
	return w
}
