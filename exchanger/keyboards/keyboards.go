// Package keyboards builds the inline keyboards and owns the callback keys
// shared between handlers and flows.
package keyboards

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/telegram/keyboard"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

// Callback keys for user-facing navigation.
const (
	CBMenu         = "menu"
	CBProfile      = "profile"
	CBExchange     = "exchange"
	CBFAQ          = "faq"
	CBClose        = "close"
	CBFiatToCrypto = "fiat_to_crypto"
	CBCryptoToFiat = "crypto_to_fiat"
	CBCurrency     = "currency"
	CBPayment      = "payment"
	CBSendRequest  = "send_request"
)

// Callback keys for the admin panel.
const (
	CBBackToAdmin    = "back_to_admin"
	CBStatistics     = "statistics"
	CBStatsDay       = "stats_day"
	CBStatsWeek      = "stats_week"
	CBStatsMonth     = "stats_month"
	CBBroadcast      = "broadcast"
	CBStartBroadcast = "start_broadcast"
	CBChangeStatus   = "change_status"
	CBBotOn          = "bot_on"
	CBBotOff         = "bot_off"
	CBManageCurrency = "manage_currency"
	CBManagePayment  = "manage_payment"
	CBManageChannel  = "manage_channel"
	CBManageBanner   = "manage_banner"
	CBManageUser     = "manage_user"
	CBAction         = "act"
	CBKind           = "kind"
	CBDeleteCurrency = "delcur"
	CBDeletePayment  = "delpay"
	CBDeleteChannel  = "delchan"
)

// Callback keys for the request lifecycle.
const (
	CBApprove        = "approve"
	CBReject         = "reject"
	CBPaymentSent    = "payment_sent"
	CBCancelExchange = "cancel_exchange"
	CBComplete       = "complete"
	CBAdminCancel    = "admin_cancel"
)

// Action payloads used with CBAction.
const (
	ActAdd          = "add"
	ActDelete       = "delete"
	ActBan          = "ban"
	ActUnban        = "unban"
	ActSet          = "set"
	ActRemove       = "remove"
	ActWithMedia    = "with_media"
	ActWithoutMedia = "without_media"
)

// MainMenu is the top-level user keyboard. The support button is omitted when
// no support URL is configured.
func MainMenu(supportURL string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{
		markup.Row(markup.Data("💱 Exchange", CBExchange)),
		markup.Row(
			markup.Data("👤 Profile", CBProfile),
			markup.Data("❓ FAQ", CBFAQ),
		),
	}
	if supportURL != "" {
		rows = append(rows, markup.Row(markup.URL("🛟 Support", supportURL)))
	}
	markup.Inline(rows...)
	return markup
}

// ExchangeDirections offers the two flow entry points.
func ExchangeDirections() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💵 Fiat → Crypto", Unique: CBFiatToCrypto}},
		[]keyboard.InlineBtn{{Text: "🪙 Crypto → Fiat", Unique: CBCryptoToFiat}},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBMenu}},
	)
}

// CurrencyList renders currency picks two per row with a back button.
func CurrencyList(names []string) *tele.ReplyMarkup {
	return pickList(CBCurrency, names)
}

// PaymentList renders payment method picks two per row with a back button.
func PaymentList(names []string) *tele.ReplyMarkup {
	return pickList(CBPayment, names)
}

func pickList(unique string, names []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(names))
	for _, name := range names {
		buttons = append(buttons, keyboard.InlineBtn{Text: name, Unique: unique, Data: name})
	}
	markup := keyboard.InlineButtonsNPerRow(buttons, 2)
	back := &tele.ReplyMarkup{}
	markup.InlineKeyboard = append(markup.InlineKeyboard,
		[]tele.InlineButton{*back.Data("◀️ Back", CBMenu).Inline()})
	return markup
}

// ConfirmRequest asks the user to submit or abandon the composed request.
func ConfirmRequest() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Send request", Unique: CBSendRequest}},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: CBMenu}},
	)
}

// JoinChannels links every required channel.
func JoinChannels(channels []storage.Channel) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, markup.Row(markup.URL("📣 Join channel", ch.URL)))
	}
	markup.Inline(rows...)
	return markup
}

// AdminPanel is the admin entry keyboard.
func AdminPanel() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "💱 Currencies", Unique: CBManageCurrency},
			{Text: "💳 Payment methods", Unique: CBManagePayment},
		},
		[]keyboard.InlineBtn{
			{Text: "📣 Channels", Unique: CBManageChannel},
			{Text: "🖼 Banner", Unique: CBManageBanner},
		},
		[]keyboard.InlineBtn{
			{Text: "👥 Users", Unique: CBManageUser},
			{Text: "📊 Statistics", Unique: CBStatistics},
		},
		[]keyboard.InlineBtn{
			{Text: "📨 Broadcast", Unique: CBBroadcast},
			{Text: "🔌 Bot status", Unique: CBChangeStatus},
		},
		[]keyboard.InlineBtn{{Text: "✖️ Close", Unique: CBClose}},
	)
}

// AddDelete selects an admin management action.
func AddDelete() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "➕ Add", Unique: CBAction, Data: ActAdd},
			{Text: "➖ Delete", Unique: CBAction, Data: ActDelete},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// BanUnban selects the user management action.
func BanUnban() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🚫 Ban", Unique: CBAction, Data: ActBan},
			{Text: "♻️ Unban", Unique: CBAction, Data: ActUnban},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// BannerActions selects the banner management action.
func BannerActions() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✏️ Set text", Unique: CBAction, Data: ActSet},
			{Text: "🗑 Remove", Unique: CBAction, Data: ActRemove},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// BroadcastKindSelect chooses between a photo broadcast and a text one.
func BroadcastKindSelect() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🖼 With photo", Unique: CBAction, Data: ActWithMedia},
			{Text: "📝 Text only", Unique: CBAction, Data: ActWithoutMedia},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// KindSelect chooses between crypto and fiat.
func KindSelect() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🪙 Crypto", Unique: CBKind, Data: storage.KindCrypto},
			{Text: "💵 Fiat", Unique: CBKind, Data: storage.KindFiat},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// DeleteList renders one delete button per key with a back button.
func DeleteList(unique string, keys []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(keys)+1)
	for _, key := range keys {
		buttons = append(buttons, keyboard.InlineBtn{Text: "🗑 " + key, Unique: unique, Data: key})
	}
	buttons = append(buttons, keyboard.InlineBtn{Text: "◀️ Back", Unique: CBBackToAdmin})
	return keyboard.InlineButtons(buttons)
}

// ApproveReject is attached to new request notifications for admins.
func ApproveReject(userID int64, pair, amount string) *tele.ReplyMarkup {
	payload := fmt.Sprintf("%d|%s|%s", userID, pair, amount)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Approve", Unique: CBApprove, Data: payload},
			{Text: "❌ Reject", Unique: CBReject, Data: payload},
		},
	)
}

// PaymentConfirm is sent to the user after approval.
func PaymentConfirm(pair, amount string) *tele.ReplyMarkup {
	payload := fmt.Sprintf("%s|%s", pair, amount)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💸 I have paid", Unique: CBPaymentSent, Data: payload}},
		[]keyboard.InlineBtn{{Text: "❌ Cancel exchange", Unique: CBCancelExchange, Data: payload}},
	)
}

// CompleteCancel is attached to payment-sent notifications for admins.
func CompleteCancel(userID int64, amount, pair string) *tele.ReplyMarkup {
	payload := fmt.Sprintf("%d|%s|%s", userID, amount, pair)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Complete", Unique: CBComplete, Data: payload},
			{Text: "❌ Cancel", Unique: CBAdminCancel, Data: payload},
		},
	)
}

// StatusToggle offers the opposite of the current bot status.
func StatusToggle(current string) *tele.ReplyMarkup {
	var toggle keyboard.InlineBtn
	if current == storage.StatusOn {
		toggle = keyboard.InlineBtn{Text: "🔴 Turn off", Unique: CBBotOff}
	} else {
		toggle = keyboard.InlineBtn{Text: "🟢 Turn on", Unique: CBBotOn}
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{toggle},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// StatsWindows selects the statistics window.
func StatsWindows() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "Day", Unique: CBStatsDay},
			{Text: "Week", Unique: CBStatsWeek},
			{Text: "Month", Unique: CBStatsMonth},
		},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// BroadcastConfirm launches or abandons a composed broadcast.
func BroadcastConfirm() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🚀 Start broadcast", Unique: CBStartBroadcast}},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBBackToAdmin}},
	)
}

// BackToMenu is a single back-to-main-menu button.
func BackToMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: CBMenu}},
	)
}

// CloseOnly is a single close button.
func CloseOnly() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✖️ Close", Unique: CBClose}},
	)
}
