package marketdata

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	cryptoQuoteCurrency     = "brl"
)

// CryptoAdapter prices crypto assets by CoinGecko asset id in local currency.
type CryptoAdapter struct {
	*client
}

// NewCryptoAdapter creates a crypto adapter. apiKey is optional; when set it
// is sent as the demo API key header.
func NewCryptoAdapter(apiKey string, opts ...Option) *CryptoAdapter {
	c := newClient(ProviderCrypto, DefaultCoinGeckoBaseURL, opts)
	if k := strings.TrimSpace(apiKey); k != "" {
		c.headers.Set("x-cg-demo-api-key", k)
	}
	return &CryptoAdapter{client: c}
}

func (a *CryptoAdapter) Name() string { return ProviderCrypto }

// FetchPrices requests every id in a single call.
func (a *CryptoAdapter) FetchPrices(ctx context.Context, ids []string) (Quotes, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			wanted[id] = true
		}
	}
	quotes := Quotes{}
	if len(wanted) == 0 {
		return quotes, nil
	}
	list := make([]string, 0, len(wanted))
	for id := range wanted {
		list = append(list, id)
	}
	sort.Strings(list)

	params := url.Values{}
	params.Set("ids", strings.Join(list, ","))
	params.Set("vs_currencies", cryptoQuoteCurrency)
	params.Set("include_24hr_change", "true")

	var resp map[string]map[string]*flexDecimal
	if err := a.get(ctx, "/simple/price", params, &resp); err != nil {
		return quotes, err
	}

	for id, fields := range resp {
		price, ok := fields[cryptoQuoteCurrency]
		if !ok || price == nil || !price.Decimal().IsPositive() {
			continue
		}
		q := Quote{Price: price.Decimal()}
		if chg, ok := fields[cryptoQuoteCurrency+"_24h_change"]; ok && chg != nil {
			q.ChangePercent = decimal.NewNullDecimal(chg.Decimal())
		}
		quotes[strings.ToLower(id)] = q
	}
	return quotes, nil
}
