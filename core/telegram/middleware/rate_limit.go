package middleware

import (
	"sync"
	"time"

	"github.com/m3rciful/exchanger/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	Exclude  map[string]struct{}
	// OnLimited is invoked for the first violations of a burst; after the
	// warning budget is spent the update is swallowed silently.
	OnLimited tele.HandlerFunc
	// WarnBudget caps how many consecutive violations still produce a
	// warning. Zero means the default of 2.
	WarnBudget int
	// Sleep is replaceable in tests. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

type throttleEntry struct {
	lastSeen   time.Time
	violations int
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. A violating update is swallowed and the
// caller is held back for the remainder of the window, so a burst drains at
// the configured rate instead of being dropped instantly.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		users   = make(map[int64]*throttleEntry)
		usersMu sync.Mutex
	)
	warnBudget := opts.WarnBudget
	if warnBudget <= 0 {
		warnBudget = 2
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			// Determine update kind and apply configured exclusions
			upd := c.Update()
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = "callback"
			case upd.Message != nil:
				kind = "message"
			case upd.Query != nil:
				kind = "inline_query"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			now := time.Now()

			usersMu.Lock()
			entry, ok := users[user.ID]
			if !ok {
				entry = &throttleEntry{}
				users[user.ID] = entry
			}
			elapsed := now.Sub(entry.lastSeen)
			if !entry.lastSeen.IsZero() && elapsed < opts.Interval {
				entry.violations++
				violations := entry.violations
				remaining := opts.Interval - elapsed
				usersMu.Unlock()

				logger.TG.Warn("rate limit",
					slog.String("event", "tg.rate_limit"),
					slog.Int64("user_id", user.ID),
					slog.Int("violations", violations),
					slog.Int64("hold_ms", remaining.Milliseconds()),
				)
				if violations <= warnBudget && opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				sleep(remaining)
				return nil
			}

			entry.lastSeen = now
			entry.violations = 0
			usersMu.Unlock()
			return next(c)
		}
	}
}
