package model

import (
	"sort"
	"time"
)

// PriceBar represents a single OHLCV bar. Sequences are ordered by strictly increasing Timestamp.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// SortBars orders bars by timestamp and collapses bars sharing a timestamp into the one that
// came last in the input. The result is strictly increasing. bars is reordered in place.
func SortBars(bars []PriceBar) []PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(b.Timestamp) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
