package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kadig/internal/cache"
	"kadig/internal/marketdata"
	"kadig/internal/models"
)

type HoldingStore interface {
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	UpdateHoldingValuation(ctx context.Context, id string, v models.Valuation) error
}

type PortfolioStore interface {
	UpdatePortfolioTotals(ctx context.Context, id string, t models.PortfolioTotals) error
}

// Request scopes a run. An empty UserID sweeps every user. ForceUpdate skips
// cached quotes.
type Request struct {
	UserID      string `json:"userId"`
	ForceUpdate bool   `json:"forceUpdate"`
}

// Summary is the outcome of one run. Success stays true whenever holdings
// could be loaded; provider and write failures only populate Errors.
type Summary struct {
	Success    bool      `json:"success"`
	Updated    int       `json:"updated"`
	Total      int       `json:"total"`
	Portfolios int       `json:"portfolios"`
	Errors     []string  `json:"errors,omitempty"`
	Unmatched  []string  `json:"unmatched,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
}

// providerOrder fixes the order fetch errors are reported in.
var providerOrder = []string{marketdata.ProviderEquity, marketdata.ProviderCrypto, marketdata.ProviderCurrency}

type Refresher struct {
	holdings         HoldingStore
	portfolios       PortfolioStore
	providers        map[string]marketdata.Provider
	cache            cache.PriceCache
	writeConcurrency int
	log              *logrus.Logger
	now              func() time.Time
}

type RefresherOption func(*Refresher)

// WithCache enables quote caching across runs.
func WithCache(c cache.PriceCache) RefresherOption {
	return func(s *Refresher) { s.cache = c }
}

// WithWriteConcurrency bounds the number of concurrent holding writes.
func WithWriteConcurrency(n int) RefresherOption {
	return func(s *Refresher) {
		if n > 0 {
			s.writeConcurrency = n
		}
	}
}

// WithClock overrides the time source used for updated_at stamps.
func WithClock(now func() time.Time) RefresherOption {
	return func(s *Refresher) { s.now = now }
}

func NewRefresher(holdings HoldingStore, portfolios PortfolioStore, providers []marketdata.Provider, log *logrus.Logger, opts ...RefresherOption) *Refresher {
	s := &Refresher{
		holdings:         holdings,
		portfolios:       portfolios,
		providers:        map[string]marketdata.Provider{},
		writeConcurrency: 4,
		log:              log,
		now:              time.Now,
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one refresh: load, classify, fetch, revalue, aggregate.
// The only error returned is a failure to load holdings; everything after
// that is collected into the summary.
func (s *Refresher) Run(ctx context.Context, req Request) (*Summary, error) {
	runID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run_id": runID, "user_id": req.UserID})
	started := time.Now()

	holdings, err := s.holdings.ListHoldings(ctx, req.UserID)
	if err != nil {
		log.Errorf("load holdings failed: %v", err)
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	summary := &Summary{Success: true, Total: len(holdings), RunID: runID}
	if len(holdings) == 0 {
		summary.Timestamp = s.now().UTC()
		log.Info("no holdings to refresh")
		return summary, nil
	}

	buckets := Classify(holdings)
	for _, h := range buckets.Unmatched {
		log.WithField("holding_id", h.ID).Warnf("no %s mapping for %q", h.Category, h.Name)
		summary.Unmatched = append(summary.Unmatched, fmt.Sprintf("%s %q (holding %s)", h.Category, h.Name, h.ID))
	}

	quotes, fetchErrs := s.fetchAll(ctx, buckets, req.ForceUpdate, log)
	summary.Errors = append(summary.Errors, fetchErrs...)

	updated, writeErrs := s.revalueAll(ctx, buckets, quotes, log)
	summary.Updated = updated
	summary.Errors = append(summary.Errors, writeErrs...)

	// Every valuation write has returned at this point.
	portfolios, aggErrs := s.aggregate(ctx, req.UserID, log)
	summary.Portfolios = portfolios
	summary.Errors = append(summary.Errors, aggErrs...)

	summary.Timestamp = s.now().UTC()
	log.WithFields(logrus.Fields{
		"updated":    summary.Updated,
		"total":      summary.Total,
		"portfolios": summary.Portfolios,
		"errors":     len(summary.Errors),
		"unmatched":  len(summary.Unmatched),
		"duration":   time.Since(started).String(),
	}).Info("price refresh finished")
	return summary, nil
}

// fetchAll queries every provider that has work, concurrently.
func (s *Refresher) fetchAll(ctx context.Context, b Buckets, force bool, log *logrus.Entry) (map[string]marketdata.Quotes, []string) {
	var (
		mu     sync.Mutex
		quotes = map[string]marketdata.Quotes{}
		errs   = map[string][]string{}
	)

	var g errgroup.Group
	for _, name := range providerOrder {
		name := name
		keys := b.Keys(name)
		if len(keys) == 0 {
			continue
		}
		p, ok := s.providers[name]
		if !ok {
			mu.Lock()
			errs[name] = []string{fmt.Sprintf("%s: provider not configured", name)}
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			got, err := s.fetch(ctx, p, keys, force, log)
			mu.Lock()
			defer mu.Unlock()
			quotes[name] = got
			if err != nil {
				log.WithField("provider", name).Warnf("fetch failed: %v", err)
				errs[name] = append(errs[name], errorStrings(name, err)...)
			}
			return nil
		})
	}
	_ = g.Wait()

	var flat []string
	for _, name := range providerOrder {
		flat = append(flat, errs[name]...)
	}
	return quotes, flat
}

// fetch serves what it can from the cache and asks the provider for the rest.
func (s *Refresher) fetch(ctx context.Context, p marketdata.Provider, keys []string, force bool, log *logrus.Entry) (marketdata.Quotes, error) {
	quotes := marketdata.Quotes{}
	missing := keys
	if s.cache != nil && !force {
		missing = nil
		for _, k := range keys {
			q, ok, err := s.cache.Get(ctx, p.Name(), k)
			if err != nil {
				log.WithField("provider", p.Name()).Warnf("cache read %s failed: %v", k, err)
			}
			if ok {
				quotes[k] = q
				continue
			}
			missing = append(missing, k)
		}
		if len(missing) == 0 {
			log.WithField("provider", p.Name()).Debugf("all %d quotes served from cache", len(keys))
			return quotes, nil
		}
	}

	fetched, err := p.FetchPrices(ctx, missing)
	for k, q := range fetched {
		quotes[k] = q
		if s.cache != nil {
			if cerr := s.cache.Set(ctx, p.Name(), k, q); cerr != nil {
				log.WithField("provider", p.Name()).Warnf("cache write %s failed: %v", k, cerr)
			}
		}
	}
	return quotes, err
}

// revalueAll writes a new valuation for every holding that received a quote.
func (s *Refresher) revalueAll(ctx context.Context, b Buckets, quotes map[string]marketdata.Quotes, log *logrus.Entry) (int, []string) {
	var (
		mu      sync.Mutex
		updated int
		errs    []string
	)
	now := s.now().UTC()

	var g errgroup.Group
	g.SetLimit(s.writeConcurrency)
	for _, name := range providerOrder {
		for _, t := range b.Targets(name) {
			q, ok := quotes[name][t.Key]
			if !ok {
				log.WithField("holding_id", t.Holding.ID).Debugf("no %s quote for %s", name, t.Key)
				continue
			}
			v := Revalue(t.Holding, q.Price, now)
			id := t.Holding.ID
			g.Go(func() error {
				err := s.holdings.UpdateHoldingValuation(ctx, id, v)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.WithField("holding_id", id).Errorf("update holding failed: %v", err)
					errs = append(errs, fmt.Sprintf("holding %s: %v", id, err))
					return nil
				}
				updated++
				return nil
			})
		}
	}
	_ = g.Wait()
	sort.Strings(errs)
	return updated, errs
}

// aggregate re-reads holdings and rewrites the totals of every portfolio
// that has at least one.
func (s *Refresher) aggregate(ctx context.Context, userID string, log *logrus.Entry) (int, []string) {
	holdings, err := s.holdings.ListHoldings(ctx, userID)
	if err != nil {
		log.Errorf("reload holdings for aggregation failed: %v", err)
		return 0, []string{fmt.Sprintf("aggregate: load holdings: %v", err)}
	}

	totals := Aggregate(holdings, s.now().UTC())
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []string
	written := 0
	for _, id := range ids {
		if err := s.portfolios.UpdatePortfolioTotals(ctx, id, totals[id]); err != nil {
			log.WithField("portfolio_id", id).Errorf("update portfolio failed: %v", err)
			errs = append(errs, fmt.Sprintf("portfolio %s: %v", id, err))
			continue
		}
		written++
	}
	return written, errs
}

// errorStrings flattens joined errors so each failed batch is reported on its
// own line, tagged with the provider.
func errorStrings(provider string, err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, fmt.Sprintf("%s: %v", provider, e))
		}
		return out
	}
	return []string{fmt.Sprintf("%s: %v", provider, err)}
}
