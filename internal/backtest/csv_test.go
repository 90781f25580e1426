package backtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	src := `Timestamp,Open,High,Low,Close,Volume
2025-10-01T14:00:00Z,101,102,100,101.5,2000
2025-10-01T13:30:00Z,100,101,99,100.5,1500
not-a-time,1,1,1,1,1
1759330800,102,103,101,102.5,
2025-10-02,103,,,103.5,10
`
	bars, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, bars, 4)

	assert.Equal(t, time.Date(2025, 10, 1, 13, 30, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, int64(1500), bars[0].Volume)
	assert.Equal(t, 101.5, bars[1].Close)
	assert.Equal(t, time.Unix(1759330800, 0).UTC(), bars[2].Timestamp)
	assert.Zero(t, bars[2].Volume)
	assert.Equal(t, 103.5, bars[3].High, "missing high falls back to close")
}

func TestReadCSV_RepeatedTimestamp(t *testing.T) {
	src := `date,close
2025-01-02,10
2025-01-03,11
2025-01-02,10.5
`
	bars, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 10.5, bars[0].Close, "later row wins")
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,close\n2025-01-02,10\n2025-01-03,11\n"), 0o644))

	bars, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
