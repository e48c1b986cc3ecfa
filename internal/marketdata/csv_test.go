package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "RELIANCE.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-01,100,105,99,104,1000000\n"+
			"2024-01-02,104,110,103,108,1200000\n")

	store := NewStore(dir, logger.NewNop())
	bars, err := store.Load("RELIANCE")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 105.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 104.0, bars[0].Close)
	assert.Equal(t, int64(1_000_000), bars[0].Volume)
}

func TestLoadMissingFileSkips(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNop())
	bars, err := store.Load("NOPE")
	assert.NoError(t, err)
	assert.Nil(t, bars)
}

func TestLoadMissingColumnSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "BAD.csv", "date,open,high,low,close\n2024-01-01,1,2,0.5,1.5\n")

	store := NewStore(dir, logger.NewNop())
	bars, err := store.Load("BAD")
	assert.NoError(t, err)
	assert.Nil(t, bars)
}

func TestLoadRejectsUnorderedDates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "X.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-02,1,2,0.5,1.5,10\n"+
			"2024-01-01,1,2,0.5,1.5,10\n")

	store := NewStore(dir, logger.NewNop())
	_, err := store.Load("X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not strictly ascending")
}

func TestLoadRejectsDuplicateDates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "X.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-01,1,2,0.5,1.5,10\n"+
			"2024-01-01,1,2,0.5,1.5,10\n")

	store := NewStore(dir, logger.NewNop())
	_, err := store.Load("X")
	require.Error(t, err)
}

func TestLoadRejectsMalformedRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "X.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-01,abc,2,0.5,1.5,10\n")

	store := NewStore(dir, logger.NewNop())
	_, err := store.Load("X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAA.csv",
		"date,open,high,low,close,volume\n2024-01-01,1,2,0.5,1.5,10\n")

	store := NewStore(dir, logger.NewNop())
	data, err := store.LoadAll([]string{"AAA", "MISSING"})
	require.NoError(t, err)

	assert.Len(t, data, 1)
	assert.Contains(t, data, "AAA")
	assert.NotContains(t, data, "MISSING")
}

func TestSaveMergesExisting(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, logger.NewNop())

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, store.Save("AAA", []contracts.Bar{
		{Date: day(1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Date: day(2), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 20},
	}))

	// Overlapping range: day 2 revised, day 3 new.
	require.NoError(t, store.Save("AAA", []contracts.Bar{
		{Date: day(2), Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 25},
		{Date: day(3), Open: 2.5, High: 3.5, Low: 2, Close: 3, Volume: 30},
	}))

	bars, err := store.Load("AAA")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 2.5, bars[1].Close)
	assert.Equal(t, int64(25), bars[1].Volume)
	assert.Equal(t, day(3), bars[2].Date)
}
