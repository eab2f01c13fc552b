package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryEquity   Category = "equity"
	CategoryCrypto   Category = "crypto"
	CategoryCurrency Category = "currency"
	CategoryOther    Category = "other"
)

// ParseCategory maps a stored category tag onto the closed set. Unknown tags
// are treated as other, which is never refreshed.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryEquity:
		return CategoryEquity
	case CategoryCrypto:
		return CategoryCrypto
	case CategoryCurrency:
		return CategoryCurrency
	default:
		return CategoryOther
	}
}

type Holding struct {
	ID            string              `db:"id" json:"id"`
	PortfolioID   string              `db:"portfolio_id" json:"portfolio_id"`
	UserID        string              `db:"user_id" json:"user_id"`
	Category      Category            `db:"category" json:"category"`
	Name          string              `db:"name" json:"name"`
	Symbol        *string             `db:"symbol" json:"symbol,omitempty"`
	Quantity      decimal.NullDecimal `db:"quantity" json:"quantity"`
	TotalInvested decimal.Decimal     `db:"total_invested" json:"total_invested"`
	CurrentPrice  decimal.Decimal     `db:"current_price" json:"current_price"`
	CurrentValue  decimal.Decimal     `db:"current_value" json:"current_value"`
	GainPercent   decimal.Decimal     `db:"gain_percent" json:"gain_percent"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// Ticker returns the trimmed, upper-cased market symbol, or "" when unset.
func (h Holding) Ticker() string {
	if h.Symbol == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(*h.Symbol))
}

// EffectiveQuantity is the quantity used for valuation: unset or zero
// quantities count as a single unit.
func (h Holding) EffectiveQuantity() decimal.Decimal {
	if !h.Quantity.Valid || h.Quantity.Decimal.IsZero() {
		return decimal.NewFromInt(1)
	}
	return h.Quantity.Decimal
}

type Portfolio struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Name       string          `db:"name" json:"name"`
	TotalValue decimal.Decimal `db:"total_value" json:"total_value"`
	TotalGain  decimal.Decimal `db:"total_gain" json:"total_gain"`
	CDIPercent decimal.Decimal `db:"cdi_percent" json:"cdi_percent"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Valuation is the set of derived holding fields written together from one
// price sample.
type Valuation struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	GainPercent  decimal.Decimal `json:"gain_percent"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type PortfolioTotals struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalGain     decimal.Decimal `json:"total_gain"`
	CDIPercent    decimal.Decimal `json:"cdi_percent"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
