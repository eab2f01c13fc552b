package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBrapiBaseURL = "https://brapi.dev/api"
	// MaxEquityBatch is the upstream limit of symbols per quote request.
	MaxEquityBatch = 20
)

// EquityAdapter prices stocks, ETFs, BDRs and funds by ticker through a
// brapi-style /quote endpoint.
type EquityAdapter struct {
	*client
	token     string
	batchSize int
}

// NewEquityAdapter creates an equity adapter. batchSize is capped at
// MaxEquityBatch; zero or negative means the maximum.
func NewEquityAdapter(token string, batchSize int, opts ...Option) *EquityAdapter {
	if batchSize <= 0 || batchSize > MaxEquityBatch {
		batchSize = MaxEquityBatch
	}
	return &EquityAdapter{
		client:    newClient(ProviderEquity, DefaultBrapiBaseURL, opts),
		token:     strings.TrimSpace(token),
		batchSize: batchSize,
	}
}

func (a *EquityAdapter) Name() string { return ProviderEquity }

type brapiQuoteResponse struct {
	Results []brapiResult `json:"results"`
}

type brapiResult struct {
	Symbol                     string       `json:"symbol"`
	RegularMarketPrice         flexDecimal  `json:"regularMarketPrice"`
	RegularMarketChangePercent *flexDecimal `json:"regularMarketChangePercent"`
}

// FetchPrices requests the given tickers in batches. A failed batch does not
// stop the others: the quotes of successful batches are returned together
// with the joined batch errors.
func (a *EquityAdapter) FetchPrices(ctx context.Context, symbols []string) (Quotes, error) {
	if a.token == "" {
		return Quotes{}, missingCredential("BRAPI_TOKEN")
	}

	batches := Batch(Dedupe(symbols), a.batchSize)
	quotes := Quotes{}
	if len(batches) == 0 {
		return quotes, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			got, err := a.fetchBatch(gctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("batch [%s]: %w", strings.Join(batch, ","), err))
				return nil
			}
			quotes.Merge(got)
			return nil
		})
	}
	_ = g.Wait()

	return quotes, errors.Join(errs...)
}

func (a *EquityAdapter) fetchBatch(ctx context.Context, batch []string) (Quotes, error) {
	params := url.Values{}
	params.Set("token", a.token)

	var resp brapiQuoteResponse
	path := "/quote/" + strings.Join(batch, ",")
	if err := a.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	quotes := Quotes{}
	for _, r := range resp.Results {
		price := r.RegularMarketPrice.Decimal()
		sym := strings.ToUpper(strings.TrimSpace(r.Symbol))
		if sym == "" || !price.IsPositive() {
			continue
		}
		q := Quote{Price: price}
		if r.RegularMarketChangePercent != nil {
			q.ChangePercent = decimal.NewNullDecimal(r.RegularMarketChangePercent.Decimal())
		}
		quotes[sym] = q
	}
	return quotes, nil
}

// Dedupe upper-cases and trims identifiers, dropping blanks and repeats while
// keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Batch splits ids into consecutive groups of at most size elements.
func Batch(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
