package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/infrastructure/metrics"
)

// RateConfig tunes rate resolution.
type RateConfig struct {
	// IntermediaryCurrency is the pivot for one-hop cross rates.
	IntermediaryCurrency string
	// IntermediaryEnabled switches cross-rate derivation on.
	IntermediaryEnabled bool
	// CacheTTL bounds staleness of cached resolutions.
	CacheTTL time.Duration
}

// DefaultRateConfig returns the stock resolution settings.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		IntermediaryCurrency: "USD",
		IntermediaryEnabled:  true,
		CacheTTL:             5 * time.Minute,
	}
}

// RateUseCase handles exchange rate management and resolution. Resolution
/// tries three strategies in order: a direct rate, the inverse of the reversed
// pair, and a one-hop cross through the intermediary currency.
type RateUseCase struct {
	txManager TransactionManager
	rateRepo  RateRepository
	directory Directory
	idGen     IDGenerator
	cache     Cache
	config    RateConfig
	metrics   *metrics.Metrics
}

// NewRateUseCase creates a new RateUseCase. The cache is optional.
func NewRateUseCase(
	txManager TransactionManager,
	rateRepo RateRepository,
	directory Directory,
	idGen IDGenerator,
	cache Cache,
	config RateConfig,
	metrics *metrics.Metrics,
) *RateUseCase {
	if config.IntermediaryCurrency == "" {
		config.IntermediaryCurrency = "USD"
	}

	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}

	return &RateUseCase{
		txManager: txManager,
		rateRepo:  rateRepo,
		directory: directory,
		idGen:     idGen,
		cache:     cache,
		config:    config,
		metrics:   metrics,
	}
}

// SetExchangeRateInput represents input for setting a currency pair rate.
type SetExchangeRateInput struct {
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	BuyRate      *decimal.Decimal
	SellRate     *decimal.Decimal
	SetBy        string
	Notes        string
}

// SetExchangeRate makes a new rate current for the pair. The prior current
// row is closed and an audit record written in the same transaction, so the
// pair never has two open rows and never loses its history.
func (uc *RateUseCase) SetExchangeRate(ctx context.Context, input SetExchangeRateInput) (*domain.ExchangeRate, error) {
	for _, code := range []string{input.FromCurrency, input.ToCurrency} {
		if err := domain.ValidateCurrencyCode(code); err != nil {
			return nil, err
		}

		active, err := uc.directory.CurrencyActive(ctx, code)
		if err != nil {
			return nil, err
		}

		if !active {
			return nil, domain.ErrCurrencyNotFound
		}
	}

	now := time.Now().UTC()

	rate := &domain.ExchangeRate{
		ID:            uc.idGen.Generate(),
		FromCurrency:  input.FromCurrency,
		ToCurrency:    input.ToCurrency,
		Rate:          input.Rate,
		BuyRate:       input.BuyRate,
		SellRate:      input.SellRate,
		EffectiveFrom: now,
		SetBy:         input.SetBy,
		Notes:         input.Notes,
	}

	if err := rate.Validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	change := &domain.RateChange{
		ID:           uc.idGen.Generate(),
		RateID:       rate.ID,
		FromCurrency: input.FromCurrency,
		ToCurrency:   input.ToCurrency,
		NewRate:      input.Rate,
		NewBuyRate:   input.BuyRate,
		NewSellRate:  input.SellRate,
		ChangeType:   domain.RateCreated,
		ChangedBy:    input.SetBy,
		ChangedAt:    now,
		Reason:       input.Notes,
	}

	prior, err := uc.rateRepo.GetCurrentForUpdate(ctx, tx, input.FromCurrency, input.ToCurrency)
	switch {
	case err == nil:
		if err := uc.rateRepo.CloseCurrent(ctx, tx, prior.ID, now); err != nil {
			return nil, err
		}

		change.ChangeType = domain.RateUpdated
		change.OldRate = &prior.Rate
		change.OldBuyRate = prior.BuyRate
		change.OldSellRate = prior.SellRate
	case errors.Is(err, domain.ErrRateNotFound):
		// first rate for the pair
	default:
		return nil, err
	}

	if err := uc.rateRepo.Create(ctx, tx, rate); err != nil {
		return nil, err
	}

	if err := uc.rateRepo.CreateChange(ctx, tx, change); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, input.FromCurrency, input.ToCurrency)

	if uc.metrics != nil {
		uc.metrics.RatesSet.Inc()
	}

	return rate, nil
}

// GetLatestRate resolves the rate for a pair: direct, then inverse, then one
// hop through the intermediary currency.
func (uc *RateUseCase) GetLatestRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	for _, code := range []string{from, to} {
		if err := domain.ValidateCurrencyCode(code); err != nil {
			return nil, err
		}
	}

	if from == to {
		return nil, domain.ErrSameCurrency
	}

	if rate := uc.cacheGet(ctx, from, to); rate != nil {
		if uc.metrics != nil {
			uc.metrics.RateCacheHits.Inc()
		}

		return rate, nil
	}

	rate, strategy, err := uc.resolve(ctx, from, to)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, from, to, rate)

	if uc.metrics != nil {
		uc.metrics.RateLookups.WithLabelValues(strategy).Inc()
	}

	return rate, nil
}

func (uc *RateUseCase) resolve(ctx context.Context, from, to string) (*domain.ExchangeRate, string, error) {
	direct, err := uc.rateRepo.GetCurrent(ctx, from, to)
	if err == nil {
		return direct, "direct", nil
	}

	if !errors.Is(err, domain.ErrRateNotFound) {
		return nil, "", err
	}

	reversed, err := uc.rateRepo.GetCurrent(ctx, to, from)
	if err == nil {
		return reversed.Inverse(), "inverse", nil
	}

	if !errors.Is(err, domain.ErrRateNotFound) {
		return nil, "", err
	}

	pivot := uc.config.IntermediaryCurrency
	if !uc.config.IntermediaryEnabled || from == pivot || to == pivot {
		return nil, "", fmt.Errorf("%w: no rate for %s/%s", domain.ErrRateNotFound, from, to)
	}

	legA, err := uc.directOrInverse(ctx, from, pivot)
	if err != nil {
		return nil, "", fmt.Errorf("%w: no rate for %s/%s", domain.ErrRateNotFound, from, to)
	}

	legB, err := uc.directOrInverse(ctx, pivot, to)
	if err != nil {
		return nil, "", fmt.Errorf("%w: no rate for %s/%s", domain.ErrRateNotFound, from, to)
	}

	// Keep the composed rate unrounded; only converted amounts round.
	cross := &domain.ExchangeRate{
		ID:            uc.idGen.Generate(),
		FromCurrency:  from,
		ToCurrency:    to,
		Rate:          legA.Rate.Mul(legB.Rate),
		EffectiveFrom: laterOf(legA.EffectiveFrom, legB.EffectiveFrom),
		SetBy:         "system",
		Notes:         fmt.Sprintf("derived via %s", pivot),
	}

	return cross, "cross", nil
}

func (uc *RateUseCase) directOrInverse(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	rate, err := uc.rateRepo.GetCurrent(ctx, from, to)
	if err == nil {
		return rate, nil
	}

	if !errors.Is(err, domain.ErrRateNotFound) {
		return nil, err
	}

	reversed, err := uc.rateRepo.GetCurrent(ctx, to, from)
	if err != nil {
		return nil, err
	}

	return reversed.Inverse(), nil
}

// ConversionInput represents input for a conversion quote.
type ConversionInput struct {
	Amount       decimal.Decimal
	FromCurrency string
	ToCurrency   string
	Kind         domain.RateKind
}

// Conversion is a priced conversion quote.
type Conversion struct {
	FromCurrency string
	ToCurrency   string
	FromAmount   decimal.Decimal
	ToAmount     decimal.Decimal
	RateUsed     decimal.Decimal
	RateKind     domain.RateKind
}

// CalculateExchange quotes a conversion. The result rounds half-up to the
// target currency's minor-unit exponent; the rate itself stays unrounded.
func (uc *RateUseCase) CalculateExchange(ctx context.Context, input ConversionInput) (*Conversion, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.FromCurrency == input.ToCurrency {
		return &Conversion{
			FromCurrency: input.FromCurrency,
			ToCurrency:   input.ToCurrency,
			FromAmount:   input.Amount,
			ToAmount:     input.Amount,
			RateUsed:     decimal.NewFromInt(1),
			RateKind:     domain.RateStandard,
		}, nil
	}

	rate, err := uc.GetLatestRate(ctx, input.FromCurrency, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	used, kind := rate.PickRate(input.Kind)

	exponent, err := uc.directory.CurrencyExponent(ctx, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	return &Conversion{
		FromCurrency: input.FromCurrency,
		ToCurrency:   input.ToCurrency,
		FromAmount:   input.Amount,
		ToAmount:     domain.RoundToExponent(input.Amount.Mul(used), exponent),
		RateUsed:     used,
		RateKind:     kind,
	}, nil
}

// ConvertAmount converts at the standard rate.
func (uc *RateUseCase) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	conv, err := uc.CalculateExchange(ctx, ConversionInput{
		Amount:       amount,
		FromCurrency: from,
		ToCurrency:   to,
		Kind:         domain.RateStandard,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return conv.ToAmount, nil
}

// CurrencyAmount is one leg of a multi-currency aggregation.
type CurrencyAmount struct {
	Currency string
	Amount   decimal.Decimal
}

// AggregateBalances sums amounts across currencies in one target currency.
// Each leg converts independently and the sum rounds to the target exponent.
func (uc *RateUseCase) AggregateBalances(ctx context.Context, items []CurrencyAmount, target string) (decimal.Decimal, error) {
	if err := domain.ValidateCurrencyCode(target); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero

	for _, item := range items {
		if item.Amount.IsZero() {
			continue
		}

		if item.Currency == target {
			total = total.Add(item.Amount)
			continue
		}

		rate, err := uc.GetLatestRate(ctx, item.Currency, target)
		if err != nil {
			return decimal.Zero, err
		}

		total = total.Add(item.Amount.Mul(rate.Rate))
	}

	exponent, err := uc.directory.CurrencyExponent(ctx, target)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.RoundToExponent(total, exponent), nil
}

// GetRateHistory lists effective-dated rate rows for a pair, newest first.
func (uc *RateUseCase) GetRateHistory(ctx context.Context, from, to string, since, until *time.Time, limit, offset int) ([]*domain.ExchangeRate, error) {
	for _, code := range []string{from, to} {
		if err := domain.ValidateCurrencyCode(code); err != nil {
			return nil, err
		}
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.rateRepo.History(ctx, from, to, since, until, limit, offset)
}

func rateCacheKey(from, to string) string {
	return "rate:" + from + ":" + to
}

func (uc *RateUseCase) cacheGet(ctx context.Context, from, to string) *domain.ExchangeRate {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, rateCacheKey(from, to))
	if err != nil || data == nil {
		return nil
	}

	var rate domain.ExchangeRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil
	}

	return &rate
}

func (uc *RateUseCase) cacheSet(ctx context.Context, from, to string, rate *domain.ExchangeRate) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(rate)
	if err != nil {
		return
	}

	// best effort; a cache miss later just re-resolves
	_ = uc.cache.Set(ctx, rateCacheKey(from, to), data, uc.config.CacheTTL)
}

// invalidate drops both directions of the pair. Cached cross rates that
// pivoted through either currency age out within CacheTTL.
func (uc *RateUseCase) invalidate(ctx context.Context, from, to string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, rateCacheKey(from, to))
	_ = uc.cache.Delete(ctx, rateCacheKey(to, from))
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}
