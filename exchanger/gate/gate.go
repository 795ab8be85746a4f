// Package gate implements the access checks that run on every update before
// it reaches a handler: global bot status, bans, channel subscription, and
// the promotional banner. Admins pass all gates unconditionally.
package gate

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
	"log/slog"
)

// Store is the persistence slice the gates read from.
type Store interface {
	BotStatus(ctx context.Context) (string, error)
	IsBanned(ctx context.Context, id int64) (bool, error)
	Channels(ctx context.Context) ([]storage.Channel, error)
	Banner(ctx context.Context) (string, bool, error)
}

// Membership resolves a user's standing in a channel.
type Membership interface {
	MemberStatus(c tele.Context, channelID string, userID int64) (tele.MemberStatus, error)
}

// BotMembership queries membership through the update's bot instance.
type BotMembership struct{}

type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

// MemberStatus implements Membership via ChatMemberOf.
func (BotMembership) MemberStatus(c tele.Context, channelID string, userID int64) (tele.MemberStatus, error) {
	member, err := c.Bot().ChatMemberOf(chatRecipient(channelID), &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// Gates bundles the gate middlewares with their shared dependencies.
type Gates struct {
	Store      Store
	Membership Membership
	IsAdmin    func(userID int64) bool
}

func (g *Gates) admin(c tele.Context) bool {
	user := c.Sender()
	return user != nil && g.IsAdmin != nil && g.IsAdmin(user.ID)
}

func notify(c tele.Context, text string) {
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
		return
	}
	_ = tghelpers.SendText(c, text)
}

// BotStatus halts every non-admin update while the bot is switched off.
func (g *Gates) BotStatus(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if g.admin(c) {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		status, err := g.Store.BotStatus(ctx)
		if err != nil {
			logger.Warn(ctx, "gate", "status.check_failed", slog.String("err", err.Error()))
			return next(c)
		}
		if status == storage.StatusOff {
			notify(c, "The bot is temporarily unavailable. Please try again later.")
			return nil
		}
		return next(c)
	}
}

// Ban halts updates from banned users.
func (g *Gates) Ban(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil || g.admin(c) {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		banned, err := g.Store.IsBanned(ctx, user.ID)
		if err != nil {
			logger.Warn(ctx, "gate", "ban.check_failed",
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
			return next(c)
		}
		if banned {
			notify(c, "You are banned from using this bot.")
			return nil
		}
		return next(c)
	}
}

// Subscription requires membership in every stored channel. Lookup failures
// are logged and skipped so a misconfigured channel cannot lock users out.
func (g *Gates) Subscription(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil || g.admin(c) {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		channels, err := g.Store.Channels(ctx)
		if err != nil {
			logger.Warn(ctx, "gate", "subscription.list_failed", slog.String("err", err.Error()))
			return next(c)
		}
		for _, ch := range channels {
			role, err := g.Membership.MemberStatus(c, ch.ChannelID, user.ID)
			if err != nil {
				logger.Warn(ctx, "gate", "subscription.check_failed",
					slog.String("channel_id", ch.ChannelID),
					slog.Int64("user_id", user.ID),
					slog.String("err", err.Error()),
				)
				continue
			}
			if role == tele.Left || role == tele.Kicked {
				if c.Callback() != nil {
					_ = c.Respond(&tele.CallbackResponse{Text: "Please subscribe to our channels first."})
				}
				_ = tghelpers.SendText(c, "To use the exchange you need to join our channels:",
					&tele.SendOptions{ReplyMarkup: keyboards.JoinChannels(channels)})
				return nil
			}
		}
		return next(c)
	}
}

// Banner shows the promotional banner as a callback alert when the user opens
// the exchange menu. It never blocks the update.
func (g *Gates) Banner(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if g.admin(c) || c.Callback() == nil {
			return next(c)
		}
		if callbacks.CallbackKey(c) != keyboards.CBExchange {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		text, ok, err := g.Store.Banner(ctx)
		if err != nil {
			logger.Warn(ctx, "gate", "banner.fetch_failed", slog.String("err", err.Error()))
			return next(c)
		}
		if ok && text != "" {
			_ = c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
		}
		return next(c)
	}
}
