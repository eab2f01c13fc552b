package marketdata

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Dólar":               "DOLAR",
		"  dólar   americano ": "DOLAR AMERICANO",
		"Franco Suíço":        "FRANCO SUICO",
		"bitcoin":             "BITCOIN",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "input %q", in)
	}
}

func TestCoinID(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"BITCOIN", "bitcoin", true},
		{"bitcoin", "bitcoin", true},
		{" Btc ", "bitcoin", true},
		{"Ethereum", "ethereum", true},
		{"Polygon", "matic-network", true},
		{"avax", "avalanche-2", true},
		{"Bitcoin Cash", "", false},
		{"MyToken", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CoinID(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoinTable_EveryEntryResolves(t *testing.T) {
	known := map[string]bool{}
	for _, id := range KnownCoinIDs() {
		known[id] = true
	}
	for name, id := range coinIDs {
		assert.Equal(t, name, NormalizeName(name), "table keys must already be normalized")
		got, ok := CoinID(name)
		require.True(t, ok, name)
		assert.Equal(t, id, got)
		assert.True(t, known[id])
	}
	assert.Len(t, known, 15)
}

func TestCurrencyPair(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"DÓLAR", "USDBRL", true},
		{"Dólar Americano", "USDBRL", true},
		{"Reserva em USD", "USDBRL", true},
		{"Dólar Canadense", "CADBRL", true},
		{"Dólar Australiano", "AUDBRL", true},
		{"Euro", "EURBRL", true},
		{"Libra Esterlina", "GBPBRL", true},
		{"Iene", "JPYBRL", true},
		{"Franco Suíço", "CHFBRL", true},
		{"Peso Argentino", "ARSBRL", true},
		{"Peso Mexicano", "MXNBRL", true},
		{"Yuan", "CNYBRL", true},
		{"Rupia", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CurrencyPair(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCurrencyPairs(t *testing.T) {
	pairs := CurrencyPairs()
	sort.Strings(pairs)
	assert.Len(t, pairs, 10)
	assert.Contains(t, pairs, "USD-BRL")
	assert.Contains(t, pairs, "EUR-BRL")
}
