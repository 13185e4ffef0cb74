package model

import (
	"fmt"
	"time"
)

// Bar is one OHLCV observation for the tracked pair.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Raw field names of a bar, as they appear in a feature schema.
const (
	OpenField   = "open"
	HighField   = "high"
	LowField    = "low"
	CloseField  = "close"
	VolumeField = "volume"
	TimeField   = "time"
)

// RawFields lists the raw bar fields usable as features, in schema order.
var RawFields = []string{OpenField, HighField, LowField, CloseField, VolumeField}

// Field returns the raw value for the given field name.
func (b Bar) Field(name string) (float64, bool) {
	switch name {
	case OpenField:
		return b.Open, true
	case HighField:
		return b.High, true
	case LowField:
		return b.Low, true
	case CloseField:
		return b.Close, true
	case VolumeField:
		return b.Volume, true
	}
	return 0, false
}

// CheckOrder makes sure the bars are strictly ascending in time.
// Downstream stages rely on that order, so nothing gets re-sorted.
func CheckOrder(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d at %v is not after bar %d at %v: %w",
				i, bars[i].Time, i-1, bars[i-1].Time, ConfigErr)
		}
	}
	return nil
}

// Indicators holds the derived values of a bar keyed by field name.
type Indicators map[string]float64

// IndicatorizedBar is a bar with all its configured indicators defined.
type IndicatorizedBar struct {
	Bar
	Indicators Indicators `json:"indicators"`
}

// Field returns either a raw or a derived value for the given name.
func (b IndicatorizedBar) Field(name string) (float64, bool) {
	if v, ok := b.Bar.Field(name); ok {
		return v, true
	}
	v, ok := b.Indicators[name]
	return v, ok
}

// Labels maps a horizon to the binary direction label at that horizon.
type Labels map[int]int

// LabeledBar is an indicatorized bar with one label per configured horizon.
type LabeledBar struct {
	IndicatorizedBar
	Labels Labels `json:"labels"`
}
