package universe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/trishul/pkg/httputil"
	"github.com/wonny/trishul/pkg/logger"
)

// constituentsURL lists the NIFTY 50 constituents in a wikitable with
// a Symbol column.
const constituentsURL = "https://en.wikipedia.org/wiki/NIFTY_50"

// Scraper pulls the current NIFTY 50 constituent list for universe
// refreshes.
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewScraper creates a constituents scraper.
func NewScraper(httpClient *httputil.Client, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		logger:     log,
		url:        constituentsURL,
	}
}

// FetchConstituents scrapes the constituent symbols in table order.
func (s *Scraper) FetchConstituents(ctx context.Context) ([]string, error) {
	resp, err := s.httpClient.GetWithHeaders(ctx, s.url, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	symbols := parseConstituents(doc)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no constituents found at %s", s.url)
	}

	s.logger.WithField("constituents", len(symbols)).Info("Fetched index constituents")
	return symbols, nil
}

// parseConstituents finds the first wikitable with a Symbol header and
// collects that column.
func parseConstituents(doc *goquery.Document) []string {
	var symbols []string
	seen := make(map[string]bool)

	doc.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		symbolCol := -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			if strings.EqualFold(strings.TrimSpace(th.Text()), "Symbol") {
				symbolCol = i
			}
		})
		if symbolCol == -1 {
			return true // keep looking
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= symbolCol {
				return
			}
			symbol := normalize(cells.Eq(symbolCol).Text())
			// NSE symbols are dot-free; suffixed forms like RELIANCE.NS
			// lose the exchange suffix.
			if i := strings.IndexByte(symbol, '.'); i > 0 {
				symbol = symbol[:i]
			}
			if symbol == "" || seen[symbol] {
				return
			}
			seen[symbol] = true
			symbols = append(symbols, symbol)
		})
		return len(symbols) == 0
	})

	return symbols
}
