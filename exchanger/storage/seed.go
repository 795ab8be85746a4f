package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/exchanger/core/logger"
	"log/slog"
)

// SeedTarget is the slice of Store the seeder needs.
type SeedTarget interface {
	AddCurrency(ctx context.Context, cur Currency) error
	AddPaymentMethod(ctx context.Context, pm PaymentMethod) error
}

var defaultCurrencies = []Currency{
	{Name: "Bitcoin (BTC)", Kind: KindCrypto, MinAmount: "0.001", MaxAmount: "10", Details: "Network: Bitcoin"},
	{Name: "Ethereum (ETH)", Kind: KindCrypto, MinAmount: "0.01", MaxAmount: "100", Details: "Network: ERC20"},
	{Name: "Tether (USDT)", Kind: KindCrypto, MinAmount: "10", MaxAmount: "10000", Details: "Network: TRC20/ERC20"},
	{Name: "BNB", Kind: KindCrypto, MinAmount: "0.1", MaxAmount: "100", Details: "Network: BEP20"},
	{Name: "XRP", Kind: KindCrypto, MinAmount: "10", MaxAmount: "10000", Details: "Network: Ripple"},
	{Name: "USD", Kind: KindFiat, MinAmount: "10", MaxAmount: "10000", Details: ""},
	{Name: "EUR", Kind: KindFiat, MinAmount: "10", MaxAmount: "10000", Details: ""},
	{Name: "GBP", Kind: KindFiat, MinAmount: "10", MaxAmount: "10000", Details: ""},
	{Name: "RUB", Kind: KindFiat, MinAmount: "1000", MaxAmount: "1000000", Details: ""},
	{Name: "JPY", Kind: KindFiat, MinAmount: "1000", MaxAmount: "1000000", Details: ""},
}

var defaultPaymentMethods = []PaymentMethod{
	{Name: "Bitcoin Address", Kind: KindCrypto},
	{Name: "Ethereum Address", Kind: KindCrypto},
	{Name: "USDT TRC20", Kind: KindCrypto},
	{Name: "USDT ERC20", Kind: KindCrypto},
	{Name: "BNB BEP20", Kind: KindCrypto},
	{Name: "Bank Transfer", Kind: KindFiat},
	{Name: "Credit Card", Kind: KindFiat},
	{Name: "PayPal", Kind: KindFiat},
	{Name: "Revolut", Kind: KindFiat},
	{Name: "Wise", Kind: KindFiat},
}

// SeedDefaults inserts the default currencies and payment methods. Rows that
// already exist are logged and skipped.
func SeedDefaults(ctx context.Context, target SeedTarget) error {
	var created, skipped int
	for _, cur := range defaultCurrencies {
		err := target.AddCurrency(ctx, cur)
		switch {
		case errors.Is(err, ErrDuplicate):
			skipped++
		case err != nil:
			return fmt.Errorf("seed currency %s: %w", cur.Name, err)
		default:
			created++
		}
	}
	for _, pm := range defaultPaymentMethods {
		err := target.AddPaymentMethod(ctx, pm)
		switch {
		case errors.Is(err, ErrDuplicate):
			skipped++
		case err != nil:
			return fmt.Errorf("seed payment method %s: %w", pm.Name, err)
		default:
			created++
		}
	}
	if logger.SEED != nil {
		logger.SEED.Info("defaults seeded",
			slog.String("event", "seed.defaults"),
			slog.Int("created", created),
			slog.Int("skipped", skipped),
		)
	}
	return nil
}
