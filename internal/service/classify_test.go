package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadig/internal/marketdata"
	"kadig/internal/models"
)

func TestClassify(t *testing.T) {
	holdings := []models.Holding{
		{ID: "h1", Category: models.CategoryEquity, Name: "Petrobras", Symbol: strPtr(" petr4 ")},
		{ID: "h2", Category: models.CategoryEquity, Name: "Fundo sem ticker", Symbol: strPtr("  ")},
		{ID: "h3", Category: models.CategoryEquity, Name: "Sem símbolo"},
		{ID: "h4", Category: models.CategoryCrypto, Name: "Bitcoin"},
		{ID: "h5", Category: models.CategoryCrypto, Name: "ShibaMoon"},
		{ID: "h6", Category: models.CategoryCurrency, Name: "DÓLAR"},
		{ID: "h7", Category: models.CategoryCurrency, Name: "Rupia"},
		{ID: "h8", Category: models.CategoryOther, Name: "Tesouro Selic"},
		{ID: "h9", Category: models.ParseCategory("imovel"), Name: "Apartamento"},
	}

	b := Classify(holdings)

	require.Len(t, b.Equity, 1)
	assert.Equal(t, "h1", b.Equity[0].Holding.ID)
	assert.Equal(t, "PETR4", b.Equity[0].Key)

	require.Len(t, b.Crypto, 1)
	assert.Equal(t, "bitcoin", b.Crypto[0].Key)

	require.Len(t, b.Currency, 1)
	assert.Equal(t, "USDBRL", b.Currency[0].Key)

	ids := func(hs []models.Holding) []string {
		out := []string{}
		for _, h := range hs {
			out = append(out, h.ID)
		}
		return out
	}
	assert.Equal(t, []string{"h2", "h3", "h8", "h9"}, ids(b.Unclassified))
	assert.Equal(t, []string{"h5", "h7"}, ids(b.Unmatched))
}

func TestClassify_BucketsAreDisjoint(t *testing.T) {
	holdings := []models.Holding{
		{ID: "a", Category: models.CategoryEquity, Symbol: strPtr("VALE3")},
		{ID: "b", Category: models.CategoryCrypto, Name: "ETH"},
		{ID: "c", Category: models.CategoryCurrency, Name: "Euro"},
		{ID: "d", Category: models.CategoryOther},
		{ID: "e", Category: models.CategoryCrypto, Name: "unknown"},
	}
	b := Classify(holdings)
	total := len(b.Equity) + len(b.Crypto) + len(b.Currency) + len(b.Unclassified) + len(b.Unmatched)
	assert.Equal(t, len(holdings), total)
}

func TestBuckets_KeysAreDistinct(t *testing.T) {
	holdings := []models.Holding{
		{ID: "a", Category: models.CategoryEquity, Symbol: strPtr("PETR4")},
		{ID: "b", Category: models.CategoryEquity, Symbol: strPtr("petr4")},
		{ID: "c", Category: models.CategoryEquity, Symbol: strPtr("VALE3")},
		{ID: "d", Category: models.CategoryCrypto, Name: "BTC"},
		{ID: "e", Category: models.CategoryCrypto, Name: "Bitcoin"},
	}
	b := Classify(holdings)
	assert.Equal(t, []string{"PETR4", "VALE3"}, b.Keys(marketdata.ProviderEquity))
	assert.Equal(t, []string{"bitcoin"}, b.Keys(marketdata.ProviderCrypto))
	assert.Empty(t, b.Keys(marketdata.ProviderCurrency))
	assert.Nil(t, b.Targets("unknown"))
}
