package dhan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/pkg/httputil"
	"github.com/wonny/trishul/pkg/logger"
)

const sampleMaster = `SEM_EXM_EXCH_ID,SEM_TRADING_SYMBOL,SEM_SMST_SECURITY_ID,SEM_INSTRUMENT_NAME
NSE,RELIANCE,2885,EQUITY
NSE,TCS-EQ,11536,EQUITY
BSE,RELIANCE,500325,EQUITY
NSE,HAL,2303,EQUITY
NSE,,999,EQUITY
`

func TestParseScripMaster(t *testing.T) {
	bySymbol, err := parseScripMaster(strings.NewReader(sampleMaster))
	require.NoError(t, err)

	assert.Equal(t, "2885", bySymbol["RELIANCE"])
	assert.Equal(t, "11536", bySymbol["TCS-EQ"])
	assert.Equal(t, "2303", bySymbol["HAL"])
	// BSE row and the blank-symbol row are dropped.
	assert.Len(t, bySymbol, 3)
}

func TestParseScripMasterMissingColumn(t *testing.T) {
	_, err := parseScripMaster(strings.NewReader("A,B\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEM_TRADING_SYMBOL")
}

func TestResolverSecurityID(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleMaster))
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "scrip", "master.csv")
	resolver := NewResolver(httputil.New(logger.NewNop()), logger.NewNop(), cache)
	resolver.url = server.URL

	ctx := context.Background()

	id, err := resolver.SecurityID(ctx, "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, "2885", id)

	// Falls back to the -EQ series symbol.
	id, err = resolver.SecurityID(ctx, "tcs")
	require.NoError(t, err)
	assert.Equal(t, "11536", id)

	_, err = resolver.SecurityID(ctx, "UNKNOWN")
	require.Error(t, err)

	// One download serves all lookups and populates the cache.
	assert.Equal(t, 1, hits)
	_, err = os.Stat(cache)
	assert.NoError(t, err)
}

func TestResolverUsesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cache should prevent any download")
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "master.csv")
	require.NoError(t, os.WriteFile(cache, []byte(sampleMaster), 0o644))

	resolver := NewResolver(httputil.New(logger.NewNop()), logger.NewNop(), cache)
	resolver.url = server.URL

	id, err := resolver.SecurityID(context.Background(), "HAL")
	require.NoError(t, err)
	assert.Equal(t, "2303", id)
}

func TestResolverSecurityIDs(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "master.csv")
	require.NoError(t, os.WriteFile(cache, []byte(sampleMaster), 0o644))

	resolver := NewResolver(httputil.New(logger.NewNop()), logger.NewNop(), cache)

	found, missing, err := resolver.SecurityIDs(context.Background(), []string{"RELIANCE", "NOPE", "HAL"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"RELIANCE": "2885", "HAL": "2303"}, found)
	assert.Equal(t, []string{"NOPE"}, missing)
}
