package handlers

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/exchanger/core/telegram"
	"github.com/m3rciful/exchanger/core/telegram/commands"
	"github.com/m3rciful/exchanger/core/telegram/middleware"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
)

// Register wires every command and callback into the registry. Admin-only
// entries are wrapped at registration time so the routers stay generic.
func (h *Handlers) Register(reg *tg.Registry) {
	adminOpts := middleware.AdminOptions{
		IsAdmin: h.IsAdmin,
		OnReject: func(c tele.Context) error {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "Admins only"})
			}
			return nil
		},
	}
	adminOnly := middleware.AdminOnlyMiddleware(adminOpts)

	register := func(name, description string, handler tele.HandlerFunc, adminCmd, hidden bool) {
		wrapped := middleware.WithAdminCheck(adminOpts, struct {
			AdminOnly bool
			Handler   tele.HandlerFunc
		}{AdminOnly: adminCmd, Handler: handler})
		reg.RegisterCommand(name, commands.Command{
			Handler:     wrapped,
			Description: description,
			AdminOnly:   adminCmd,
			Hidden:      hidden,
		})
	}

	register("/start", "Main menu", h.Start, false, false)
	register("/help", "List commands", h.Help, false, false)
	register("/exchange", "Start an exchange", h.Exchange, false, false)
	register("/profile", "Your profile", h.Profile, false, false)
	register("/faq", "Frequently asked questions", h.FAQ, false, false)
	register("/support", "Contact support", h.Support, false, false)
	register("/admin", "Admin panel", h.AdminPanel, true, false)
	register("/stats", "Statistics", h.Statistics, true, false)
	register("/broadcast", "Broadcast a message", h.Broadcast, true, false)

	// User navigation callbacks.
	_ = reg.RegisterCallback(keyboards.CBMenu, h.Menu)
	_ = reg.RegisterCallback(keyboards.CBProfile, h.Profile)
	_ = reg.RegisterCallback(keyboards.CBExchange, h.Exchange)
	_ = reg.RegisterCallback(keyboards.CBFAQ, h.FAQ)
	_ = reg.RegisterCallback(keyboards.CBClose, h.Close)
	_ = reg.RegisterCallback(keyboards.CBFiatToCrypto, h.FiatToCrypto)
	_ = reg.RegisterCallback(keyboards.CBCryptoToFiat, h.CryptoToFiat)

	// Admin panel callbacks.
	_ = reg.RegisterCallback(keyboards.CBBackToAdmin, adminOnly(h.AdminPanel))
	_ = reg.RegisterCallback(keyboards.CBStatistics, adminOnly(h.Statistics))
	_ = reg.RegisterCallback(keyboards.CBStatsDay, adminOnly(h.StatsDay))
	_ = reg.RegisterCallback(keyboards.CBStatsWeek, adminOnly(h.StatsWeek))
	_ = reg.RegisterCallback(keyboards.CBStatsMonth, adminOnly(h.StatsMonth))
	_ = reg.RegisterCallback(keyboards.CBChangeStatus, adminOnly(h.ChangeStatus))
	_ = reg.RegisterCallback(keyboards.CBBotOn, adminOnly(h.BotOn))
	_ = reg.RegisterCallback(keyboards.CBBotOff, adminOnly(h.BotOff))
	_ = reg.RegisterCallback(keyboards.CBBroadcast, adminOnly(h.Broadcast))
	_ = reg.RegisterCallback(keyboards.CBManageCurrency, adminOnly(h.ManageCurrency))
	_ = reg.RegisterCallback(keyboards.CBManagePayment, adminOnly(h.ManagePayment))
	_ = reg.RegisterCallback(keyboards.CBManageChannel, adminOnly(h.ManageChannel))
	_ = reg.RegisterCallback(keyboards.CBManageBanner, adminOnly(h.ManageBanner))
	_ = reg.RegisterCallback(keyboards.CBManageUser, adminOnly(h.ManageUser))
	_ = reg.RegisterCallback(keyboards.CBDeleteCurrency, adminOnly(h.DeleteCurrency))
	_ = reg.RegisterCallback(keyboards.CBDeletePayment, adminOnly(h.DeletePayment))
	_ = reg.RegisterCallback(keyboards.CBDeleteChannel, adminOnly(h.DeleteChannel))

	// Request lifecycle callbacks.
	_ = reg.RegisterCallback(keyboards.CBApprove, adminOnly(h.Approve))
	_ = reg.RegisterCallback(keyboards.CBReject, adminOnly(h.Reject))
	_ = reg.RegisterCallback(keyboards.CBComplete, adminOnly(h.Complete))
	_ = reg.RegisterCallback(keyboards.CBAdminCancel, adminOnly(h.AdminCancel))
	_ = reg.RegisterCallback(keyboards.CBPaymentSent, h.PaymentSent)
	_ = reg.RegisterCallback(keyboards.CBCancelExchange, h.CancelExchange)

	reg.SetTextFallback(h.UnknownText())
	reg.SetCallbackNotFound(h.UnknownCallback())
}
