package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one effective-dated row for a currency pair. At most one
// row per pair has a nil EffectiveTo; superseding a rate closes the prior
// row in the same transaction that opens the new one.
type ExchangeRate struct {
	ID            string
	FromCurrency  string
	ToCurrency    string
	Rate          decimal.Decimal
	BuyRate       *decimal.Decimal
	SellRate      *decimal.Decimal
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	SetBy         string
	Notes         string
}

// Validate checks that all configured rates are positive and the pair is sane.
func (r *ExchangeRate) Validate() error {
	if r.FromCurrency == r.ToCurrency {
		return ErrSameCurrency
	}
	if r.Rate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if r.BuyRate != nil && r.BuyRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if r.SellRate != nil && r.SellRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// Inverse derives the reversed pair: rate' = 1/rate, and buy/sell swap
// because buying one side is selling the other.
func (r *ExchangeRate) Inverse() *ExchangeRate {
	inv := &ExchangeRate{
		ID:            r.ID,
		FromCurrency:  r.ToCurrency,
		ToCurrency:    r.FromCurrency,
		Rate:          decimal.NewFromInt(1).DivRound(r.Rate, RateScale),
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		SetBy:         r.SetBy,
		Notes:         "derived from inverse rate",
	}
	if r.SellRate != nil {
		buy := decimal.NewFromInt(1).DivRound(*r.SellRate, RateScale)
		inv.BuyRate = &buy
	}
	if r.BuyRate != nil {
		sell := decimal.NewFromInt(1).DivRound(*r.BuyRate, RateScale)
		inv.SellRate = &sell
	}
	return inv
}

// RateChangeType discriminates first-time rates from supersessions.
type RateChangeType string

const (
	RateCreated RateChangeType = "created"
	RateUpdated RateChangeType = "updated"
)

// RateChange is one append-only audit record of a set_exchange_rate call.
type RateChange struct {
	ID           string
	RateID       string
	FromCurrency string
	ToCurrency   string
	OldRate      *decimal.Decimal
	OldBuyRate   *decimal.Decimal
	OldSellRate  *decimal.Decimal
	NewRate      decimal.Decimal
	NewBuyRate   *decimal.Decimal
	NewSellRate  *decimal.Decimal
	ChangeType   RateChangeType
	ChangedBy    string
	ChangedAt    time.Time
	Reason       string
}

// RateKind selects which configured rate a conversion uses.
type RateKind string

const (
	RateStandard RateKind = "standard"
	RateBuy      RateKind = "buy"
	RateSell     RateKind = "sell"
)

// PickRate returns the requested rate, falling back to the standard rate
// when the buy/sell side is not configured.
func (r *ExchangeRate) PickRate(kind RateKind) (decimal.Decimal, RateKind) {
	switch kind {
	case RateBuy:
		if r.BuyRate != nil {
			return *r.BuyRate, RateBuy
		}
	case RateSell:
		if r.SellRate != nil {
			return *r.SellRate, RateSell
		}
	}
	return r.Rate, RateStandard
}
