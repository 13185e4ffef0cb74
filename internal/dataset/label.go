package dataset

import (
	"fmt"
	"sort"

	"github.com/drakos74/market-predictor/internal/model"
)

// DefaultHorizons are the lookahead distances labeled by default.
var DefaultHorizons = []int{1, 3, 5}

// Label marks every bar with the direction of the close over each horizon.
// The label is 1 if the close after h bars is strictly higher, 0 otherwise (ties included).
// Bars without enough lookahead for every horizon are dropped.
func Label(bars []model.IndicatorizedBar, horizons ...int) ([]model.LabeledBar, error) {
	if len(horizons) == 0 {
		return nil, fmt.Errorf("no horizon to label: %w", model.ConfigErr)
	}
	hh := make([]int, len(horizons))
	copy(hh, horizons)
	sort.Ints(hh)
	for i, h := range hh {
		if h <= 0 {
			return nil, fmt.Errorf("horizon must be positive '%d': %w", h, model.ConfigErr)
		}
		if i > 0 && hh[i-1] == h {
			return nil, fmt.Errorf("duplicate horizon '%d': %w", h, model.ConfigErr)
		}
	}

	maxH := hh[len(hh)-1]
	n := len(bars) - maxH
	if n <= 0 {
		return []model.LabeledBar{}, nil
	}

	labeled := make([]model.LabeledBar, n)
	for i := 0; i < n; i++ {
		labels := make(model.Labels, len(hh))
		for _, h := range hh {
			labels[h] = direction(bars[i].Close, bars[i+h].Close)
		}
		labeled[i] = model.LabeledBar{
			IndicatorizedBar: bars[i],
			Labels:           labels,
		}
	}
	return labeled, nil
}

func direction(now, then float64) int {
	if then > now {
		return 1
	}
	return 0
}
