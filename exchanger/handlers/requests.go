package handlers

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"log/slog"
)

// Approve notifies the user their request was accepted and hands them the
// payment confirmation keyboard. Payload: userID|pair|amount.
func (h *Handlers) Approve(c tele.Context) error {
	userID, pair, amount, err := requestPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}

	text := fmt.Sprintf(
		"✅ Your request %s for %s was approved.\n\nComplete the payment and press the button below.",
		pair, amount)
	if err := h.Notifier.SendText(c, userID, text,
		&tele.SendOptions{ReplyMarkup: keyboards.PaymentConfirm(pair, amount)}); err != nil {
		logger.SVCExchange.Warn("approve notify failed",
			slog.String("event", "exchange.approve_notify_failed"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Could not reach the user"})
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("✅ Approved: %s, %s (user %d).", pair, amount, userID))
}

// Reject notifies the user their request was declined. Payload: userID|pair|amount.
func (h *Handlers) Reject(c tele.Context) error {
	userID, pair, amount, err := requestPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}

	text := fmt.Sprintf("❌ Your request %s for %s was rejected.", pair, amount)
	if err := h.Notifier.SendText(c, userID, text,
		&tele.SendOptions{ReplyMarkup: keyboards.BackToMenu()}); err != nil {
		logger.SVCExchange.Warn("reject notify failed",
			slog.String("event", "exchange.reject_notify_failed"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("❌ Rejected: %s, %s (user %d).", pair, amount, userID))
}

// PaymentSent tells every request recipient the user reports having paid.
// Payload: pair|amount.
func (h *Handlers) PaymentSent(c tele.Context) error {
	pair, amount, err := pairAmountPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}
	user := c.Sender()

	text := fmt.Sprintf("💸 User %d reports payment for %s, %s.", user.ID, pair, amount)
	markup := keyboards.CompleteCancel(user.ID, amount, pair)
	for _, id := range h.Recipients {
		if err := h.Notifier.SendText(c, id, text, &tele.SendOptions{ReplyMarkup: markup}); err != nil {
			logger.SVCExchange.Warn("payment notice failed",
				slog.String("event", "exchange.payment_notice_failed"),
				slog.Int64("recipient", id),
				slog.String("err", err.Error()),
			)
		}
	}
	return tghelpers.EditOrSendMD(c,
		"Thank you. The operator will confirm your payment shortly.")
}

// CancelExchange tells every request recipient the user abandoned the
// exchange. Payload: pair|amount.
func (h *Handlers) CancelExchange(c tele.Context) error {
	pair, amount, err := pairAmountPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}
	user := c.Sender()

	text := fmt.Sprintf("🚫 User %d cancelled the exchange %s, %s.", user.ID, pair, amount)
	for _, id := range h.Recipients {
		if err := h.Notifier.SendText(c, id, text); err != nil {
			logger.SVCExchange.Warn("cancel notice failed",
				slog.String("event", "exchange.cancel_notice_failed"),
				slog.Int64("recipient", id),
				slog.String("err", err.Error()),
			)
		}
	}
	return tghelpers.EditOrSendMD(c, "The exchange was cancelled.", keyboards.BackToMenu())
}

// Complete tells the user the exchange is finished. Payload: userID|amount|pair.
func (h *Handlers) Complete(c tele.Context) error {
	userID, amount, pair, err := completionPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}

	text := fmt.Sprintf("🎉 Your exchange %s for %s is complete. Thank you!", pair, amount)
	if err := h.Notifier.SendText(c, userID, text,
		&tele.SendOptions{ReplyMarkup: keyboards.BackToMenu()}); err != nil {
		logger.SVCExchange.Warn("complete notify failed",
			slog.String("event", "exchange.complete_notify_failed"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	logger.SVCExchange.Info("exchange completed",
		slog.String("event", "exchange.completed"),
		slog.Int64("user_id", userID),
		slog.String("pair", pair),
		slog.String("amount", amount),
	)
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("✅ Completed: %s, %s (user %d).", pair, amount, userID))
}

// AdminCancel tells the user the operator cancelled the exchange.
// Payload: userID|amount|pair.
func (h *Handlers) AdminCancel(c tele.Context) error {
	userID, amount, pair, err := completionPayload(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed request payload"})
	}

	text := fmt.Sprintf("🚫 Your exchange %s for %s was cancelled by the operator.", pair, amount)
	if err := h.Notifier.SendText(c, userID, text,
		&tele.SendOptions{ReplyMarkup: keyboards.BackToMenu()}); err != nil {
		logger.SVCExchange.Warn("admin cancel notify failed",
			slog.String("event", "exchange.admin_cancel_notify_failed"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("🚫 Cancelled: %s, %s (user %d).", pair, amount, userID))
}

func requestPayload(c tele.Context) (int64, string, string, error) {
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 3 {
		return 0, "", "", fmt.Errorf("expected userID|pair|amount payload")
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", "", err
	}
	return userID, parts[1], parts[2], nil
}

func pairAmountPayload(c tele.Context) (string, string, error) {
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return "", "", fmt.Errorf("expected pair|amount payload")
	}
	return parts[0], parts[1], nil
}

func completionPayload(c tele.Context) (int64, string, string, error) {
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 3 {
		return 0, "", "", fmt.Errorf("expected userID|amount|pair payload")
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", "", err
	}
	return userID, parts[1], parts[2], nil
}
