// Package handlers implements the stateless commands and callbacks: user
// navigation, the admin panel, and the request lifecycle buttons.
package handlers

import (
	"context"
	"time"

	"github.com/m3rciful/exchanger/exchanger/flow"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

// Store is the persistence slice the stateless handlers need.
type Store interface {
	AddUser(ctx context.Context, id int64, fullName, username string) error
	UserStats(ctx context.Context) (storage.UserStats, error)
	History(ctx context.Context) ([]storage.ExchangeRecord, error)
	BotStatus(ctx context.Context) (string, error)
	SetBotStatus(ctx context.Context, status string) error
	DeleteCurrency(ctx context.Context, name string) error
	DeletePaymentMethod(ctx context.Context, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
}

// Handlers bundles the stateless handlers with their dependencies.
type Handlers struct {
	Store      Store
	Engine     *flow.Engine
	Notifier   flow.Notifier
	IsAdmin    func(userID int64) bool
	SupportURL string
	FAQText    string
	// Recipients receive payment-sent and cancellation notices.
	Recipients []int64

	now func() time.Time
}

// New constructs the handler set.
func New(store Store, engine *flow.Engine, notifier flow.Notifier, isAdmin func(int64) bool, supportURL, faqText string, recipients []int64) *Handlers {
	return &Handlers{
		Store:      store,
		Engine:     engine,
		Notifier:   notifier,
		IsAdmin:    isAdmin,
		SupportURL: supportURL,
		FAQText:    faqText,
		Recipients: recipients,
		now:        time.Now,
	}
}
