package service

import (
	"kadig/internal/marketdata"
	"kadig/internal/models"
)

// Target is a holding together with the identifier its provider knows it by.
type Target struct {
	Holding models.Holding
	Key     string
}

// Buckets partitions a set of holdings by the provider that can price them.
// Unclassified holdings have no live price source; Unmatched ones belong to a
// priced category but their name is missing from its lookup table.
type Buckets struct {
	Equity       []Target
	Crypto       []Target
	Currency     []Target
	Unclassified []models.Holding
	Unmatched    []models.Holding
}

// Classify routes each holding by its stored category. Equity holdings need a
// market symbol; crypto and currency holdings are resolved by display name.
func Classify(holdings []models.Holding) Buckets {
	var b Buckets
	for _, h := range holdings {
		switch h.Category {
		case models.CategoryEquity:
			if sym := h.Ticker(); sym != "" {
				b.Equity = append(b.Equity, Target{Holding: h, Key: sym})
			} else {
				b.Unclassified = append(b.Unclassified, h)
			}
		case models.CategoryCrypto:
			if id, ok := marketdata.CoinID(h.Name); ok {
				b.Crypto = append(b.Crypto, Target{Holding: h, Key: id})
			} else {
				b.Unmatched = append(b.Unmatched, h)
			}
		case models.CategoryCurrency:
			if pair, ok := marketdata.CurrencyPair(h.Name); ok {
				b.Currency = append(b.Currency, Target{Holding: h, Key: pair})
			} else {
				b.Unmatched = append(b.Unmatched, h)
			}
		default:
			b.Unclassified = append(b.Unclassified, h)
		}
	}
	return b
}

// Targets returns the bucket served by the named provider.
func (b Buckets) Targets(provider string) []Target {
	switch provider {
	case marketdata.ProviderEquity:
		return b.Equity
	case marketdata.ProviderCrypto:
		return b.Crypto
	case marketdata.ProviderCurrency:
		return b.Currency
	}
	return nil
}

// Keys returns the distinct provider identifiers of a bucket in first-seen
// order.
func (b Buckets) Keys(provider string) []string {
	seen := map[string]bool{}
	keys := []string{}
	for _, t := range b.Targets(provider) {
		if !seen[t.Key] {
			seen[t.Key] = true
			keys = append(keys, t.Key)
		}
	}
	return keys
}
