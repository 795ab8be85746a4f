// Package exchanger wires the application: configuration, storage, the
// conversation engine, gates, and the Telegram runtime.
package exchanger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/bootstrap"
	coreconfig "github.com/m3rciful/exchanger/core/config"
	coretelegram "github.com/m3rciful/exchanger/core/telegram"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/core/telegram/router"
	"github.com/m3rciful/exchanger/core/telegram/ui"
	"github.com/m3rciful/exchanger/exchanger/flow"
	"github.com/m3rciful/exchanger/exchanger/gate"
	"github.com/m3rciful/exchanger/exchanger/handlers"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

// App holds the assembled application.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	store    *storage.Store
	engine   *flow.Engine
	handlers *handlers.Handlers
	gates    *gate.Gates
}

// Bootstrap initializes logging, storage, migrations, seeding, and services.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("exchanger: nil config")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)
	if cfg.Exchange.SeedDefaults {
		mods := bootstrap.Modules{
			Seeders: []bootstrap.Seeder{
				bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
					return storage.SeedDefaults(ctx, store)
				}),
			},
		}
		if err := bootstrap.RunSeeders(context.Background(), store, mods); err != nil {
			_ = res.DB.Close()
			return nil, fmt.Errorf("exchanger: seeding failed: %w", err)
		}
	}

	notifier := flow.BotNotifier{}
	engine := flow.New(store, notifier, cfg.Exchange.RequestRecipients)
	h := handlers.New(store, engine, notifier, cfg.IsAdmin,
		cfg.Exchange.SupportURL, cfg.Exchange.FAQText, cfg.Exchange.RequestRecipients)

	return &App{
		cfg:      cfg,
		db:       res.DB,
		store:    store,
		engine:   engine,
		handlers: h,
		gates: &gate.Gates{
			Store:      store,
			Membership: gate.BotMembership{},
			IsAdmin:    cfg.IsAdmin,
		},
	}, nil
}

// CoreConfig implements cmd.ConfigCarrier for the assembled app.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg.CoreConfig()
}

// TelegramRunOptions builds the registry, middleware chain, and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, "You are sending updates too fast. Please slow down.")
	}
	middlewares := coretelegram.DefaultMiddlewares(&a.cfg.Core, onLimited,
		coretelegram.Middleware{Name: "bot_status", Use: a.gates.BotStatus},
		coretelegram.Middleware{Name: "ban", Use: a.gates.Ban},
		coretelegram.Middleware{Name: "subscription", Use: a.gates.Subscription},
		coretelegram.Middleware{Name: "banner", Use: a.gates.Banner},
	)

	var fallbacks ui.FallbackProvider = a.handlers
	routes := router.TextRoutes(a.engine, reg, router.TextOptions{
		UnknownText:     fallbacks.UnknownText(),
		UnknownPhoto:    fallbacks.UnknownPhoto(),
		UnknownDocument: fallbacks.UnknownDocument(),
	})
	routes = append(routes, router.CallbackRoute(a.engine, reg, router.CallbackOptions{
		GlobalNav: map[string]struct{}{
			keyboards.CBMenu:        {},
			keyboards.CBBackToAdmin: {},
		},
		NotFound: fallbacks.UnknownCallback(),
	}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
