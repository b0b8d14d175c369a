package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
	"github.com/oyal/treasury/internal/usecase/mocks"
)

type rateFixture struct {
	uc        *usecase.RateUseCase
	rateRepo  *mocks.MockRateRepository
	directory *mocks.MockDirectory
	cache     *mocks.MockCache
}

func newRateFixture() *rateFixture {
	f := &rateFixture{
		rateRepo:  mocks.NewMockRateRepository(),
		directory: mocks.NewMockDirectory(),
		cache:     mocks.NewMockCache(),
	}

	f.uc = usecase.NewRateUseCase(
		mocks.NewMockTransactionManager(), f.rateRepo, f.directory,
		mocks.NewMockIDGenerator(), f.cache, usecase.DefaultRateConfig(), nil,
	)

	return f
}

func (f *rateFixture) seed(from, to, rate string) {
	f.rateRepo.Seed(&domain.ExchangeRate{
		ID: "rate-" + from + to, FromCurrency: from, ToCurrency: to,
		Rate: decimal.RequireFromString(rate), SetBy: "admin",
	})
}

func TestRateUseCase_SetExchangeRate(t *testing.T) {
	ctx := context.Background()

	t.Run("first rate records a created change", func(t *testing.T) {
		f := newRateFixture()

		rate, err := f.uc.SetExchangeRate(ctx, usecase.SetExchangeRateInput{
			FromCurrency: "USD", ToCurrency: "EUR",
			Rate: decimal.RequireFromString("0.92"), SetBy: "admin",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rate.EffectiveTo != nil {
			t.Fatalf("new rate must be open ended")
		}

		changes := f.rateRepo.Changes()
		if len(changes) != 1 || changes[0].ChangeType != domain.RateCreated || changes[0].OldRate != nil {
			t.Fatalf("expected one created change, got %+v", changes)
		}
	})

	t.Run("supersede closes the prior row and keeps old values", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.90")

		_, err := f.uc.SetExchangeRate(ctx, usecase.SetExchangeRateInput{
			FromCurrency: "USD", ToCurrency: "EUR",
			Rate: decimal.RequireFromString("0.92"), SetBy: "admin",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		current, err := f.rateRepo.GetCurrent(ctx, "USD", "EUR")
		if err != nil {
			t.Fatalf("current: %v", err)
		}

		if current.Rate.String() != "0.92" {
			t.Fatalf("current rate = %s, want 0.92", current.Rate)
		}

		changes := f.rateRepo.Changes()
		if len(changes) != 1 || changes[0].ChangeType != domain.RateUpdated {
			t.Fatalf("expected one updated change, got %+v", changes)
		}

		if changes[0].OldRate == nil || changes[0].OldRate.String() != "0.9" {
			t.Fatalf("old rate not captured: %+v", changes[0])
		}
	})

	t.Run("same currency rejected", func(t *testing.T) {
		f := newRateFixture()

		_, err := f.uc.SetExchangeRate(ctx, usecase.SetExchangeRateInput{
			FromCurrency: "USD", ToCurrency: "USD",
			Rate: decimal.NewFromInt(1), SetBy: "admin",
		})
		if !errors.Is(err, domain.ErrSameCurrency) {
			t.Fatalf("expected ErrSameCurrency, got %v", err)
		}
	})

	t.Run("non-positive rate rejected", func(t *testing.T) {
		f := newRateFixture()

		_, err := f.uc.SetExchangeRate(ctx, usecase.SetExchangeRateInput{
			FromCurrency: "USD", ToCurrency: "EUR",
			Rate: decimal.Zero, SetBy: "admin",
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestRateUseCase_GetLatestRate(t *testing.T) {
	ctx := context.Background()

	t.Run("direct rate wins", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.92")
		f.seed("EUR", "USD", "1.10")

		rate, err := f.uc.GetLatestRate(ctx, "USD", "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rate.Rate.String() != "0.92" {
			t.Fatalf("rate = %s, want the direct 0.92", rate.Rate)
		}
	})

	t.Run("inverse derives reciprocal with swapped buy and sell", func(t *testing.T) {
		f := newRateFixture()
		buy := decimal.RequireFromString("0.91")
		sell := decimal.RequireFromString("0.93")
		f.rateRepo.Seed(&domain.ExchangeRate{
			ID: "rate-1", FromCurrency: "USD", ToCurrency: "EUR",
			Rate: decimal.RequireFromString("0.92"), BuyRate: &buy, SellRate: &sell,
		})

		rate, err := f.uc.GetLatestRate(ctx, "EUR", "USD")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rate.Rate.String() != "1.086957" {
			t.Fatalf("inverse rate = %s, want 1.086957", rate.Rate)
		}

		// buy' = 1/sell, sell' = 1/buy
		if rate.BuyRate == nil || rate.BuyRate.String() != "1.075269" {
			t.Fatalf("inverse buy = %v, want 1.075269", rate.BuyRate)
		}

		if rate.SellRate == nil || rate.SellRate.String() != "1.098901" {
			t.Fatalf("inverse sell = %v, want 1.098901", rate.SellRate)
		}
	})

	t.Run("cross derives through the intermediary", func(t *testing.T) {
		f := newRateFixture()
		f.seed("EUR", "USD", "1.10")
		f.seed("USD", "GBP", "0.80")

		rate, err := f.uc.GetLatestRate(ctx, "EUR", "GBP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rate.Rate.String() != "0.88" {
			t.Fatalf("cross rate = %s, want 0.88", rate.Rate)
		}
	})

	t.Run("cross uses inverse legs when needed", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.92")
		f.seed("USD", "GBP", "0.80")

		rate, err := f.uc.GetLatestRate(ctx, "EUR", "GBP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 1/0.92 rounded to six places, times 0.80
		want := decimal.RequireFromString("1.086957").Mul(decimal.RequireFromString("0.80"))
		if !rate.Rate.Equal(want) {
			t.Fatalf("cross rate = %s, want %s", rate.Rate, want)
		}
	})

	t.Run("no path fails with rate not found", func(t *testing.T) {
		f := newRateFixture()
		f.seed("EUR", "USD", "1.10")

		_, err := f.uc.GetLatestRate(ctx, "EUR", "JPY")
		if !errors.Is(err, domain.ErrRateNotFound) {
			t.Fatalf("expected ErrRateNotFound, got %v", err)
		}
	})

	t.Run("second lookup is served from cache", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.92")

		var lookups atomic.Int32
		f.rateRepo.GetCurrentFunc = func(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
			lookups.Add(1)
			return &domain.ExchangeRate{FromCurrency: from, ToCurrency: to, Rate: decimal.RequireFromString("0.92")}, nil
		}

		for i := 0; i < 2; i++ {
			if _, err := f.uc.GetLatestRate(ctx, "USD", "EUR"); err != nil {
				t.Fatalf("lookup %d: %v", i, err)
			}
		}

		if lookups.Load() != 1 {
			t.Fatalf("expected one repository lookup, got %d", lookups.Load())
		}
	})

	t.Run("setting a rate invalidates the cached pair", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.90")

		if _, err := f.uc.GetLatestRate(ctx, "USD", "EUR"); err != nil {
			t.Fatalf("warm cache: %v", err)
		}

		if _, err := f.uc.SetExchangeRate(ctx, usecase.SetExchangeRateInput{
			FromCurrency: "USD", ToCurrency: "EUR",
			Rate: decimal.RequireFromString("0.95"), SetBy: "admin",
		}); err != nil {
			t.Fatalf("set: %v", err)
		}

		rate, err := f.uc.GetLatestRate(ctx, "USD", "EUR")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}

		if rate.Rate.String() != "0.95" {
			t.Fatalf("stale rate %s served after supersede", rate.Rate)
		}
	})
}

func TestRateUseCase_CalculateExchange(t *testing.T) {
	ctx := context.Background()

	t.Run("same currency converts at one", func(t *testing.T) {
		f := newRateFixture()

		conv, err := f.uc.CalculateExchange(ctx, usecase.ConversionInput{
			Amount: decimal.NewFromInt(250), FromCurrency: "USD", ToCurrency: "USD",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !conv.ToAmount.Equal(decimal.NewFromInt(250)) || !conv.RateUsed.Equal(decimal.NewFromInt(1)) {
			t.Fatalf("conv = %+v", conv)
		}
	})

	t.Run("result rounds to the target exponent", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "JPY", "149.37")
		f.directory.SetExponent("JPY", 0)

		conv, err := f.uc.CalculateExchange(ctx, usecase.ConversionInput{
			Amount: decimal.RequireFromString("10.50"), FromCurrency: "USD", ToCurrency: "JPY",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 10.50 * 149.37 = 1568.385, rounds to whole yen
		if conv.ToAmount.String() != "1568" {
			t.Fatalf("to amount = %s, want 1568", conv.ToAmount)
		}
	})

	t.Run("buy side falls back to standard when unset", func(t *testing.T) {
		f := newRateFixture()
		f.seed("USD", "EUR", "0.92")

		conv, err := f.uc.CalculateExchange(ctx, usecase.ConversionInput{
			Amount: decimal.NewFromInt(100), FromCurrency: "USD", ToCurrency: "EUR",
			Kind: domain.RateBuy,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if conv.RateKind != domain.RateStandard {
			t.Fatalf("rate kind = %s, want fallback to standard", conv.RateKind)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		f := newRateFixture()

		_, err := f.uc.CalculateExchange(ctx, usecase.ConversionInput{
			Amount: decimal.Zero, FromCurrency: "USD", ToCurrency: "EUR",
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestRateUseCase_AggregateBalances(t *testing.T) {
	f := newRateFixture()
	f.seed("EUR", "USD", "1.10")
	f.seed("GBP", "USD", "1.25")

	total, err := f.uc.AggregateBalances(context.Background(), []usecase.CurrencyAmount{
		{Currency: "USD", Amount: decimal.NewFromInt(1000)},
		{Currency: "EUR", Amount: decimal.NewFromInt(500)},
		{Currency: "GBP", Amount: decimal.NewFromInt(200)},
	}, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1000 + 550 + 250
	if total.String() != "1800" {
		t.Fatalf("total = %s, want 1800", total)
	}
}
