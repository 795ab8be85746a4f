package handlers

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/exchanger/flow"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
	"log/slog"
)

const welcomeText = "Welcome to the exchange bot!\n\n" +
	"Here you can exchange fiat for crypto and back. " +
	"Every request is processed manually by an operator."

const defaultFAQ = "How does it work?\n\n" +
	"1. Pick a direction and currencies.\n" +
	"2. Enter the amount and your details.\n" +
	"3. An operator reviews and approves your request.\n" +
	"4. You pay, the operator completes the exchange."

// Start registers the user and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	err := h.Store.AddUser(ctx, user.ID, name, user.Username)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		// Returning user.
	case err != nil:
		logger.Warn(ctx, "handlers", "user.register_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
	default:
		logger.Info(ctx, "handlers", "user.registered", slog.Int64("user_id", user.ID))
	}

	return tghelpers.SendMD(c, welcomeText, keyboards.MainMenu(h.SupportURL))
}

// Menu shows the main menu and abandons any active conversation.
func (h *Handlers) Menu(c tele.Context) error {
	h.Engine.Cancel(c.Sender().ID)
	return tghelpers.EditOrSendMD(c, welcomeText, keyboards.MainMenu(h.SupportURL))
}

// Help lists the available commands.
func (h *Handlers) Help(c tele.Context) error {
	text := "Available commands:\n\n" +
		"/start — main menu\n" +
		"/exchange — start an exchange\n" +
		"/profile — your profile\n" +
		"/faq — frequently asked questions\n" +
		"/support — contact support\n" +
		"/help — this message"
	return tghelpers.SendText(c, text)
}

// Profile shows the user's identity and exchange count.
func (h *Handlers) Profile(c tele.Context) error {
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)

	var exchanges int
	records, err := h.Store.History(ctx)
	if err != nil {
		logger.Warn(ctx, "handlers", "profile.history_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
	} else {
		for _, rec := range records {
			if rec.UserID == user.ID {
				exchanges++
			}
		}
	}

	username := user.Username
	if username == "" {
		username = "—"
	}
	text := fmt.Sprintf("*Your profile*\n\nID: `%d`\nUsername: @%s\nExchanges: %d",
		user.ID, username, exchanges)
	return tghelpers.EditOrSendMD(c, text, keyboards.BackToMenu())
}

// Exchange shows the direction picker.
func (h *Handlers) Exchange(c tele.Context) error {
	h.Engine.Cancel(c.Sender().ID)
	return tghelpers.EditOrSendMD(c, "Choose the exchange direction:", keyboards.ExchangeDirections())
}

// FAQ shows the configured FAQ text.
func (h *Handlers) FAQ(c tele.Context) error {
	text := h.FAQText
	if strings.TrimSpace(text) == "" {
		text = defaultFAQ
	}
	return tghelpers.EditOrSendMD(c, text, keyboards.BackToMenu())
}

// Support points the user at the support contact.
func (h *Handlers) Support(c tele.Context) error {
	if strings.TrimSpace(h.SupportURL) == "" {
		return tghelpers.SendText(c, "Support is not configured yet.")
	}
	return tghelpers.SendText(c, "Contact support: "+h.SupportURL)
}

// Close deletes the message the button was attached to.
func (h *Handlers) Close(c tele.Context) error {
	return c.Delete()
}

// UnknownText nudges the user toward /start.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I did not understand that. Use /start to open the menu.")
	}
}

// UnknownPhoto is used for photos outside a broadcast flow.
func (h *Handlers) UnknownPhoto() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I was not expecting a photo. Use /start to open the menu.")
	}
}

// UnknownDocument is used for stray documents.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I cannot process documents. Use /start to open the menu.")
	}
}

// UnknownCallback answers unroutable callbacks.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	}
}

// FiatToCrypto starts the fiat-to-crypto flow.
func (h *Handlers) FiatToCrypto(c tele.Context) error {
	return h.Engine.StartExchange(c, flow.FiatToCrypto)
}

// CryptoToFiat starts the crypto-to-fiat flow.
func (h *Handlers) CryptoToFiat(c tele.Context) error {
	return h.Engine.StartExchange(c, flow.CryptoToFiat)
}
