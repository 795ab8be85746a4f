package router

import (
	"time"

	tg "github.com/m3rciful/exchanger/core/telegram"
	"github.com/m3rciful/exchanger/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine contract the routers dispatch into.
type FSM interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
	HandlePhoto(c tele.Context) error
	HandleCallback(c tele.Context, key, payload string) error
}

// TextOptions controls fallback behaviour for text/photo/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownPhoto    tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text, photo and document routing. An active
// conversation always wins over command lookup, so a mid-flow /start is
// treated as flow input rather than a command.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsmMgr.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm_photo", start, "", "", func() error {
				return fsmMgr.HandlePhoto(c)
			})
		}
		if opts.UnknownPhoto != nil {
			return handleWithSummary(c, "unexpected_photo", start, "", "", func() error {
				return opts.UnknownPhoto(c)
			})
		}
		logHandlerSummary(c, "unexpected_photo", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
