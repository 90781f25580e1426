package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"CycleTrader/internal/model"
)

// LoadCSV reads bars from a CSV file with a header row naming
// time|timestamp|date, open, high, low, close, volume|vol. Rows without a parsable time or close
// are skipped. Bars are returned in strictly ascending time; a repeated timestamp keeps the later row.
func LoadCSV(path string) ([]model.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(src io.Reader) ([]model.PriceBar, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	var (
		out     []model.PriceBar
		headers []string
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bars csv: %w", err)
		}
		if headers == nil {
			headers = rec
			continue
		}

		row := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(rec) {
				row[strings.ToLower(strings.TrimSpace(h))] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp", "date")
		cp := first(row, "close")
		if ts == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(cp, 64)
		if err != nil {
			continue
		}
		o := parseOr(first(row, "open"), c)
		h := parseOr(first(row, "high"), c)
		l := parseOr(first(row, "low"), c)
		v, _ := strconv.ParseFloat(first(row, "volume", "vol"), 64)

		out = append(out, model.PriceBar{Timestamp: tt, Open: o, High: h, Low: l, Close: c, Volume: int64(v)})
	}

	return model.SortBars(out), nil
}

// parseTimeFlexible supports RFC3339, YYYY-MM-DD, UNIX seconds or UNIX milliseconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.DateOnly, s); err == nil {
		return ts, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

func parseOr(s string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return fallback
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
