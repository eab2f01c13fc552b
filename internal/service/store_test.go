package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"kadig/internal/marketdata"
	"kadig/internal/models"
)

// memStore is an in-memory HoldingStore and PortfolioStore.
type memStore struct {
	mu            sync.Mutex
	holdings      map[string]models.Holding
	portfolios    map[string]models.Portfolio
	failHolding   map[string]bool
	failPortfolio map[string]bool
	listErr       error
	listCalls     int
	holdingWrites int
}

func newMemStore() *memStore {
	return &memStore{
		holdings:      map[string]models.Holding{},
		portfolios:    map[string]models.Portfolio{},
		failHolding:   map[string]bool{},
		failPortfolio: map[string]bool{},
	}
}

func (m *memStore) addPortfolio(p models.Portfolio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[p.ID] = p
}

func (m *memStore) addHolding(h models.Holding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdings[h.ID] = h
}

func (m *memStore) holding(id string) models.Holding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holdings[id]
}

func (m *memStore) portfolio(id string) models.Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.portfolios[id]
}

func (m *memStore) ListHoldings(_ context.Context, userID string) ([]models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	res := []models.Holding{}
	for _, h := range m.holdings {
		if userID == "" || h.UserID == userID {
			res = append(res, h)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memStore) UpdateHoldingValuation(_ context.Context, id string, v models.Valuation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHolding[id] {
		return errors.New("connection reset")
	}
	h, ok := m.holdings[id]
	if !ok {
		return errors.New("not found")
	}
	h.CurrentPrice = v.CurrentPrice
	h.CurrentValue = v.CurrentValue
	h.GainPercent = v.GainPercent
	h.UpdatedAt = v.UpdatedAt
	m.holdings[id] = h
	m.holdingWrites++
	return nil
}

func (m *memStore) UpdatePortfolioTotals(_ context.Context, id string, t models.PortfolioTotals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPortfolio[id] {
		return errors.New("connection reset")
	}
	p, ok := m.portfolios[id]
	if !ok {
		return errors.New("not found")
	}
	p.TotalValue = t.TotalValue
	p.TotalGain = t.TotalGain
	p.CDIPercent = t.CDIPercent
	p.UpdatedAt = t.UpdatedAt
	m.portfolios[id] = p
	return nil
}

// stubProvider returns canned quotes for whichever ids are requested.
type stubProvider struct {
	name   string
	quotes marketdata.Quotes
	err    error

	mu    sync.Mutex
	calls [][]string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchPrices(_ context.Context, ids []string) (marketdata.Quotes, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]string(nil), ids...))
	p.mu.Unlock()
	out := marketdata.Quotes{}
	if p.err != nil && len(p.quotes) == 0 {
		return out, p.err
	}
	for _, id := range ids {
		if q, ok := p.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, p.err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func price(s string) marketdata.Quote {
	return marketdata.Quote{Price: decimal.RequireFromString(s)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func qty(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func strPtr(s string) *string { return &s }

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
