package storage

import (
	"context"
	"errors"
	"testing"
)

type fakeSeedTarget struct {
	currencies []Currency
	methods    []PaymentMethod
	dupAll     bool
	failName   string
}

func (t *fakeSeedTarget) AddCurrency(_ context.Context, cur Currency) error {
	if cur.Name == t.failName {
		return errors.New("connection lost")
	}
	if t.dupAll {
		return ErrDuplicate
	}
	t.currencies = append(t.currencies, cur)
	return nil
}

func (t *fakeSeedTarget) AddPaymentMethod(_ context.Context, pm PaymentMethod) error {
	if t.dupAll {
		return ErrDuplicate
	}
	t.methods = append(t.methods, pm)
	return nil
}

func TestSeedDefaultsFreshDatabase(t *testing.T) {
	target := &fakeSeedTarget{}
	if err := SeedDefaults(context.Background(), target); err != nil {
		t.Fatal(err)
	}
	if len(target.currencies) != len(defaultCurrencies) {
		t.Fatalf("currencies seeded = %d, want %d", len(target.currencies), len(defaultCurrencies))
	}
	if len(target.methods) != len(defaultPaymentMethods) {
		t.Fatalf("methods seeded = %d, want %d", len(target.methods), len(defaultPaymentMethods))
	}
}

func TestSeedDefaultsSkipsDuplicates(t *testing.T) {
	target := &fakeSeedTarget{dupAll: true}
	if err := SeedDefaults(context.Background(), target); err != nil {
		t.Fatalf("duplicates must not fail seeding: %v", err)
	}
}

func TestSeedDefaultsPropagatesRealErrors(t *testing.T) {
	target := &fakeSeedTarget{failName: "Bitcoin (BTC)"}
	if err := SeedDefaults(context.Background(), target); err == nil {
		t.Fatal("a non-duplicate insert failure must abort seeding")
	}
}
