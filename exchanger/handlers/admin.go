package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
	"log/slog"
)

// AdminPanel shows the admin panel.
func (h *Handlers) AdminPanel(c tele.Context) error {
	h.Engine.Cancel(c.Sender().ID)
	return tghelpers.EditOrSendMD(c, "*Admin panel*", keyboards.AdminPanel())
}

// Statistics shows the statistics window picker.
func (h *Handlers) Statistics(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, "Pick a statistics window:", keyboards.StatsWindows())
}

// StatsDay renders the daily statistics.
func (h *Handlers) StatsDay(c tele.Context) error {
	return h.renderStats(c, WindowDay)
}

// StatsWeek renders the weekly statistics.
func (h *Handlers) StatsWeek(c tele.Context) error {
	return h.renderStats(c, WindowWeek)
}

// StatsMonth renders the monthly statistics.
func (h *Handlers) StatsMonth(c tele.Context) error {
	return h.renderStats(c, WindowMonth)
}

func (h *Handlers) renderStats(c tele.Context, window string) error {
	ctx := tghelpers.BuildContext(c)
	users, err := h.Store.UserStats(ctx)
	if err != nil {
		return err
	}
	records, err := h.Store.History(ctx)
	if err != nil {
		return err
	}
	count, total := windowStats(records, window, h.now())

	text := fmt.Sprintf(
		"*Statistics (%s)*\n\nUsers: %d (active %d)\nExchanges: %d\nTotal amount: %s",
		window, users.Total, users.Active, count, total.String(),
	)
	return tghelpers.EditOrSendMD(c, text, keyboards.StatsWindows())
}

// ChangeStatus shows the bot status toggle.
func (h *Handlers) ChangeStatus(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	status, err := h.Store.BotStatus(ctx)
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("The bot is currently *%s*.", status),
		keyboards.StatusToggle(status))
}

// BotOn switches the bot on.
func (h *Handlers) BotOn(c tele.Context) error {
	return h.setStatus(c, storage.StatusOn)
}

// BotOff switches the bot off for everyone but admins.
func (h *Handlers) BotOff(c tele.Context) error {
	return h.setStatus(c, storage.StatusOff)
}

func (h *Handlers) setStatus(c tele.Context, status string) error {
	ctx := tghelpers.BuildContext(c)
	if err := h.Store.SetBotStatus(ctx, status); err != nil {
		return err
	}
	logger.SVCAdmin.Info("bot status changed",
		slog.String("event", "admin.status_changed"),
		slog.String("status", status),
		slog.Int64("admin_id", c.Sender().ID),
	)
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("The bot is now *%s*.", status),
		keyboards.StatusToggle(status))
}

// DeleteCurrency removes the currency named in the callback payload.
func (h *Handlers) DeleteCurrency(c tele.Context) error {
	name := callbacks.CallbackPayload(c)
	if name == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to delete"})
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.Store.DeleteCurrency(ctx, name); err != nil {
		return err
	}
	logger.SVCAdmin.Info("currency deleted",
		slog.String("event", "admin.currency_deleted"),
		slog.String("name", name),
	)
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("Currency %s deleted.", name), keyboards.AdminPanel())
}

// DeletePayment removes the payment method named in the callback payload.
func (h *Handlers) DeletePayment(c tele.Context) error {
	name := callbacks.CallbackPayload(c)
	if name == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to delete"})
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.Store.DeletePaymentMethod(ctx, name); err != nil {
		return err
	}
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("Payment method %s deleted.", name), keyboards.AdminPanel())
}

// DeleteChannel removes the channel named in the callback payload.
func (h *Handlers) DeleteChannel(c tele.Context) error {
	id := callbacks.CallbackPayload(c)
	if id == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to delete"})
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.Store.DeleteChannel(ctx, id); err != nil {
		return err
	}
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("Channel %s deleted.", id), keyboards.AdminPanel())
}

// ManageCurrency opens the currency management flow.
func (h *Handlers) ManageCurrency(c tele.Context) error {
	return h.Engine.StartCurrencyManage(c)
}

// ManagePayment opens the payment method management flow.
func (h *Handlers) ManagePayment(c tele.Context) error {
	return h.Engine.StartPaymentManage(c)
}

// ManageChannel opens the channel management flow.
func (h *Handlers) ManageChannel(c tele.Context) error {
	return h.Engine.StartChannelManage(c)
}

// ManageBanner opens the banner management flow.
func (h *Handlers) ManageBanner(c tele.Context) error {
	return h.Engine.StartBannerManage(c)
}

// ManageUser opens the ban/unban flow.
func (h *Handlers) ManageUser(c tele.Context) error {
	return h.Engine.StartUserManage(c)
}

// Broadcast opens the broadcast composition flow.
func (h *Handlers) Broadcast(c tele.Context) error {
	return h.Engine.StartBroadcast(c)
}
