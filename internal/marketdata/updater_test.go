package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

type stubFetcher struct {
	bars map[string][]contracts.Bar
	errs map[string]error
}

func (f *stubFetcher) FetchDaily(_ context.Context, symbol, _ string, _, _ time.Time) ([]contracts.Bar, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.bars[symbol], nil
}

type stubResolver struct {
	ids map[string]string
	err error
}

func (r *stubResolver) SecurityIDs(_ context.Context, symbols []string) (map[string]string, []string, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	found := make(map[string]string)
	var missing []string
	for _, s := range symbols {
		if id, ok := r.ids[s]; ok {
			found[s] = id
		} else {
			missing = append(missing, s)
		}
	}
	return found, missing, nil
}

func testBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date:   time.Date(2024, 6, 3+i, 0, 0, 0, 0, time.UTC),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100.5,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestUpdate(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNop())
	fetcher := &stubFetcher{bars: map[string][]contracts.Bar{
		"RELIANCE": testBars(3),
		"TCS":      testBars(2),
	}}
	resolver := &stubResolver{ids: map[string]string{"RELIANCE": "2885", "TCS": "11536"}}

	u := NewUpdater(fetcher, resolver, store, logger.NewNop())
	result, err := u.Update(context.Background(), []string{"RELIANCE", "TCS", "UNKNOWN"},
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"RELIANCE": 3, "TCS": 2}, result.Fetched)
	assert.Equal(t, []string{"UNKNOWN"}, result.Missing)
	assert.Empty(t, result.Failed)

	bars, err := store.Load("RELIANCE")
	require.NoError(t, err)
	assert.Len(t, bars, 3)
}

func TestUpdateCollectsFailures(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNop())
	fetcher := &stubFetcher{
		bars: map[string][]contracts.Bar{"TCS": testBars(1)},
		errs: map[string]error{"RELIANCE": fmt.Errorf("status 500")},
	}
	resolver := &stubResolver{ids: map[string]string{"RELIANCE": "2885", "TCS": "11536"}}

	u := NewUpdater(fetcher, resolver, store, logger.NewNop())
	result, err := u.Update(context.Background(), []string{"RELIANCE", "TCS"},
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"TCS": 1}, result.Fetched)
	assert.Contains(t, result.Failed["RELIANCE"], "status 500")
}

func TestUpdateResolverFailure(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNop())
	u := NewUpdater(&stubFetcher{}, &stubResolver{err: fmt.Errorf("download failed")}, store, logger.NewNop())

	_, err := u.Update(context.Background(), []string{"RELIANCE"},
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve security IDs")
}

func TestUpdateCancelledContext(t *testing.T) {
	store := NewStore(t.TempDir(), logger.NewNop())
	resolver := &stubResolver{ids: map[string]string{"RELIANCE": "2885"}}
	u := NewUpdater(&stubFetcher{}, resolver, store, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Update(ctx, []string{"RELIANCE"},
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update aborted")
}
