package router

import (
	"time"

	tg "github.com/m3rciful/exchanger/core/telegram"
	"github.com/m3rciful/exchanger/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises callback routing.
type CallbackOptions struct {
	// GlobalNav keys bypass any active conversation and go straight to the
	// registry. Their handlers are expected to tear the conversation down.
	GlobalNav map[string]struct{}
	NotFound  tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks. Precedence: global
// navigation keys, then the active conversation, then the registry.
func CallbackRoute(fsmMgr FSM, reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, payload := parseCallback(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		_, global := opts.GlobalNav[key]
		if !global && fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, name, start, "", "", func() error {
				return fsmMgr.HandleCallback(c, key, payload)
			}, append(extras, slog.String("dispatch", "fsm"))...)
		}

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
