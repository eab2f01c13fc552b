package marketdata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a display name for table lookups: accents stripped,
// upper-cased, inner whitespace collapsed. "  Dólar  americano" becomes
// "DOLAR AMERICANO".
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// coinIDs maps normalized display names and tickers to CoinGecko asset ids.
var coinIDs = map[string]string{
	"BITCOIN":       "bitcoin",
	"BTC":           "bitcoin",
	"ETHEREUM":      "ethereum",
	"ETH":           "ethereum",
	"TETHER":        "tether",
	"USDT":          "tether",
	"BNB":           "binancecoin",
	"BINANCE COIN":  "binancecoin",
	"SOLANA":        "solana",
	"SOL":           "solana",
	"XRP":           "ripple",
	"RIPPLE":        "ripple",
	"USD COIN":      "usd-coin",
	"USDC":          "usd-coin",
	"CARDANO":       "cardano",
	"ADA":           "cardano",
	"DOGECOIN":      "dogecoin",
	"DOGE":          "dogecoin",
	"TRON":          "tron",
	"TRX":           "tron",
	"POLKADOT":      "polkadot",
	"DOT":           "polkadot",
	"POLYGON":       "matic-network",
	"MATIC":         "matic-network",
	"LITECOIN":      "litecoin",
	"LTC":           "litecoin",
	"CHAINLINK":     "chainlink",
	"LINK":          "chainlink",
	"AVALANCHE":     "avalanche-2",
	"AVAX":          "avalanche-2",
}

// CoinID resolves a holding display name to a CoinGecko asset id.
func CoinID(name string) (string, bool) {
	id, ok := coinIDs[NormalizeName(name)]
	return id, ok
}

// KnownCoinIDs returns the distinct asset ids the crypto table can resolve to.
func KnownCoinIDs() []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, id := range coinIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

type currencyRule struct {
	pair     string // AwesomeAPI request code, e.g. USD-BRL
	keywords []string
}

// currencyRules is ordered: more specific keywords come before generic ones so
// that "DOLAR CANADENSE" resolves to CAD and not USD.
var currencyRules = []currencyRule{
	{pair: "AUD-BRL", keywords: []string{"AUD", "DOLAR AUSTRALIANO"}},
	{pair: "CAD-BRL", keywords: []string{"CAD", "DOLAR CANADENSE"}},
	{pair: "USD-BRL", keywords: []string{"USD", "DOLAR", "DOLLAR"}},
	{pair: "EUR-BRL", keywords: []string{"EUR", "EURO"}},
	{pair: "GBP-BRL", keywords: []string{"GBP", "LIBRA"}},
	{pair: "JPY-BRL", keywords: []string{"JPY", "IENE"}},
	{pair: "CHF-BRL", keywords: []string{"CHF", "FRANCO SUICO"}},
	{pair: "ARS-BRL", keywords: []string{"ARS", "PESO ARGENTINO"}},
	{pair: "MXN-BRL", keywords: []string{"MXN", "PESO MEXICANO"}},
	{pair: "CNY-BRL", keywords: []string{"CNY", "YUAN"}},
}

// CurrencyPair resolves a holding display name to a pair key as returned in
// AwesomeAPI responses ("USDBRL"). The first rule with a keyword contained in
// the normalized name wins.
func CurrencyPair(name string) (string, bool) {
	n := NormalizeName(name)
	if n == "" {
		return "", false
	}
	for _, rule := range currencyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(n, kw) {
				return pairKey(rule.pair), true
			}
		}
	}
	return "", false
}

// CurrencyPairs returns the request codes of every supported pair.
func CurrencyPairs() []string {
	pairs := make([]string, 0, len(currencyRules))
	for _, rule := range currencyRules {
		pairs = append(pairs, rule.pair)
	}
	return pairs
}

func pairKey(code string) string {
	return strings.ReplaceAll(code, "-", "")
}
