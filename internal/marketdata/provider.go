// Package marketdata holds the adapters for the external price sources:
// equities, crypto assets and foreign-exchange pairs.
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ProviderEquity   = "equity"
	ProviderCrypto   = "crypto"
	ProviderCurrency = "currency"
)

// ErrMissingCredential is returned by an adapter that needs an API token it
// was not configured with. No request is sent in that case.
var ErrMissingCredential = errors.New("missing provider credential")

// Quote is one price sample. ChangePercent is whatever daily change the
// provider reports; it is informational and never used for gains.
type Quote struct {
	Price         decimal.Decimal     `json:"price"`
	ChangePercent decimal.NullDecimal `json:"change_percent"`
}

// Quotes maps a provider identifier (ticker, coin id, pair key) to its quote.
// An identifier absent from the map has no update this run.
type Quotes map[string]Quote

// Merge copies every quote of other into q.
func (q Quotes) Merge(other Quotes) {
	for k, v := range other {
		q[k] = v
	}
}

// Provider is implemented by every price source adapter.
// FetchPrices may return partial quotes together with a non-nil error; the
// caller keeps whatever quotes came back.
type Provider interface {
	Name() string
	FetchPrices(ctx context.Context, ids []string) (Quotes, error)
}

// APIError represents a non-success response from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Provider, e.Message, e.StatusCode, e.Endpoint)
}

func missingCredential(env string) error {
	return fmt.Errorf("%w: %s is not set", ErrMissingCredential, env)
}
