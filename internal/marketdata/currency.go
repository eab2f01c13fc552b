package marketdata

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultAwesomeAPIBaseURL = "https://economia.awesomeapi.com.br"

// CurrencyAdapter prices foreign currencies against BRL via AwesomeAPI.
type CurrencyAdapter struct {
	*client
}

func NewCurrencyAdapter(opts ...Option) *CurrencyAdapter {
	return &CurrencyAdapter{client: newClient(ProviderCurrency, DefaultAwesomeAPIBaseURL, opts)}
}

func (a *CurrencyAdapter) Name() string { return ProviderCurrency }

type awesomeQuote struct {
	Code      string `json:"code"`
	CodeIn    string `json:"codein"`
	Bid       string `json:"bid"`
	PctChange string `json:"pctChange"`
}

// FetchPrices always requests the full list of supported pairs, whatever ids
// were asked for, and returns them keyed by pair ("USDBRL"). An empty ids
// slice skips the request.
func (a *CurrencyAdapter) FetchPrices(ctx context.Context, ids []string) (Quotes, error) {
	quotes := Quotes{}
	if len(ids) == 0 {
		return quotes, nil
	}

	var resp map[string]awesomeQuote
	path := "/json/last/" + strings.Join(CurrencyPairs(), ",")
	if err := a.get(ctx, path, nil, &resp); err != nil {
		return quotes, err
	}

	for key, raw := range resp {
		bid, err := decimal.NewFromString(strings.TrimSpace(raw.Bid))
		if err != nil || !bid.IsPositive() {
			a.log.WithField("pair", key).Debugf("skipping unparsable bid %q", raw.Bid)
			continue
		}
		q := Quote{Price: bid}
		if chg, err := decimal.NewFromString(strings.TrimSpace(raw.PctChange)); err == nil {
			q.ChangePercent = decimal.NewNullDecimal(chg)
		}
		quotes[strings.ToUpper(key)] = q
	}
	return quotes, nil
}
