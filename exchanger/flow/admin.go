package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
	"log/slog"
)

// StartCurrencyManage opens the currency management flow.
func (e *Engine) StartCurrencyManage(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, CurrencyAction{})
	return tghelpers.EditOrSendMD(c, "Currency management:", keyboards.AddDelete())
}

// StartPaymentManage opens the payment method management flow.
func (e *Engine) StartPaymentManage(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, PaymentAction{})
	return tghelpers.EditOrSendMD(c, "Payment method management:", keyboards.AddDelete())
}

// StartChannelManage opens the channel management flow.
func (e *Engine) StartChannelManage(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, ChannelAction{})
	return tghelpers.EditOrSendMD(c, "Required channel management:", keyboards.AddDelete())
}

// StartBannerManage opens the banner management flow.
func (e *Engine) StartBannerManage(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, BannerAction{})
	return tghelpers.EditOrSendMD(c, "Banner management:", keyboards.BannerActions())
}

// StartUserManage opens the ban/unban flow.
func (e *Engine) StartUserManage(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, UserAction{})
	return tghelpers.EditOrSendMD(c, "User management:", keyboards.BanUnban())
}

// StartBroadcast opens the broadcast composition flow.
func (e *Engine) StartBroadcast(c tele.Context) error {
	e.sessions.Put(c.Sender().ID, BroadcastKind{})
	return tghelpers.EditOrSendMD(c, "What kind of broadcast?", keyboards.BroadcastKindSelect())
}

func (e *Engine) handleAdminCallback(c tele.Context, step Step, key, payload string) error {
	userID := c.Sender().ID

	switch st := step.(type) {
	case CurrencyAction:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActAdd:
			e.sessions.Put(userID, CurrencyKind{})
			return tghelpers.EditOrSendMD(c, "What kind of currency?", keyboards.KindSelect())
		case keyboards.ActDelete:
			e.sessions.Delete(userID)
			ctx := tghelpers.BuildContext(c)
			currencies, err := e.store.CurrenciesAll(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(currencies))
			for _, cur := range currencies {
				names = append(names, cur.Name)
			}
			return tghelpers.EditOrSendMD(c, "Pick a currency to delete:",
				keyboards.DeleteList(keyboards.CBDeleteCurrency, names))
		}
		return nil

	case CurrencyKind:
		if key != keyboards.CBKind {
			return nil
		}
		e.sessions.Put(userID, CurrencyName{Kind: payload})
		return tghelpers.EditOrSendMD(c, "Send the currency name:")

	case PaymentAction:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActAdd:
			e.sessions.Put(userID, PaymentKind{})
			return tghelpers.EditOrSendMD(c, "What kind of payment method?", keyboards.KindSelect())
		case keyboards.ActDelete:
			e.sessions.Delete(userID)
			ctx := tghelpers.BuildContext(c)
			methods, err := e.store.PaymentMethodsAll(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(methods))
			for _, m := range methods {
				names = append(names, m.Name)
			}
			return tghelpers.EditOrSendMD(c, "Pick a payment method to delete:",
				keyboards.DeleteList(keyboards.CBDeletePayment, names))
		}
		return nil

	case PaymentKind:
		if key != keyboards.CBKind {
			return nil
		}
		e.sessions.Put(userID, PaymentName{Kind: payload})
		return tghelpers.EditOrSendMD(c, "Send the payment method name:")

	case ChannelAction:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActAdd:
			e.sessions.Put(userID, ChannelID{})
			return tghelpers.EditOrSendMD(c, "Send the channel id (@name or -100...):")
		case keyboards.ActDelete:
			e.sessions.Delete(userID)
			ctx := tghelpers.BuildContext(c)
			channels, err := e.store.Channels(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(channels))
			for _, ch := range channels {
				ids = append(ids, ch.ChannelID)
			}
			return tghelpers.EditOrSendMD(c, "Pick a channel to delete:",
				keyboards.DeleteList(keyboards.CBDeleteChannel, ids))
		}
		return nil

	case BannerAction:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActSet:
			e.sessions.Put(userID, BannerText{})
			return tghelpers.EditOrSendMD(c, "Send the banner text:")
		case keyboards.ActRemove:
			e.sessions.Delete(userID)
			ctx := tghelpers.BuildContext(c)
			if err := e.store.RemoveBanner(ctx); err != nil {
				return err
			}
			return tghelpers.EditOrSendMD(c, "Banner removed.", keyboards.AdminPanel())
		}
		return nil

	case UserAction:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActBan:
			e.sessions.Put(userID, UserID{Ban: true})
			return tghelpers.EditOrSendMD(c, "Send the numeric user id to ban:")
		case keyboards.ActUnban:
			e.sessions.Put(userID, UserID{Ban: false})
			return tghelpers.EditOrSendMD(c, "Send the numeric user id to unban:")
		}
		return nil

	case BroadcastKind:
		if key != keyboards.CBAction {
			return nil
		}
		switch payload {
		case keyboards.ActWithMedia:
			e.sessions.Put(userID, BroadcastMedia{})
			return tghelpers.EditOrSendMD(c, "Send the photo for the broadcast:")
		case keyboards.ActWithoutMedia:
			e.sessions.Put(userID, BroadcastText{})
			return tghelpers.EditOrSendMD(c, "Send the broadcast text:")
		}
		return nil

	case BroadcastConfirm:
		if key != keyboards.CBStartBroadcast {
			return nil
		}
		return e.runBroadcast(c, st)
	}

	return nil
}

func (e *Engine) handleAdminText(c tele.Context, step Step, text string) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	switch st := step.(type) {
	case CurrencyName:
		if text == "" {
			return tghelpers.SendText(c, "Send the currency name:")
		}
		e.sessions.Put(userID, CurrencyMin{Kind: st.Kind, Name: text})
		return tghelpers.SendText(c, "Send the minimum exchange amount:")

	case CurrencyMin:
		minAmount, err := decimal.NewFromString(text)
		if err != nil || !minAmount.IsPositive() {
			return tghelpers.SendText(c, "Please send a valid positive number for the minimum amount:")
		}
		e.sessions.Put(userID, CurrencyMax{Kind: st.Kind, Name: st.Name, Min: minAmount})
		return tghelpers.SendText(c, "Send the maximum exchange amount:")

	case CurrencyMax:
		maxAmount, err := decimal.NewFromString(text)
		if err != nil || maxAmount.LessThan(st.Min) {
			return tghelpers.SendText(c,
				fmt.Sprintf("Please send a valid number not less than %s:", st.Min.String()))
		}
		e.sessions.Put(userID, CurrencyDetails{Kind: st.Kind, Name: st.Name, Min: st.Min, Max: maxAmount})
		return tghelpers.SendText(c, `Send the currency details (network, notes), or "none":`)

	case CurrencyDetails:
		e.sessions.Delete(userID)
		details := text
		if strings.EqualFold(details, "none") {
			details = ""
		}
		err := e.store.AddCurrency(ctx, storage.Currency{
			Name:      st.Name,
			Kind:      st.Kind,
			MinAmount: st.Min.String(),
			MaxAmount: st.Max.String(),
			Details:   details,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			return tghelpers.SendMD(c,
				fmt.Sprintf("Currency %s already exists.", st.Name), keyboards.AdminPanel())
		}
		if err != nil {
			return err
		}
		logger.SVCAdmin.Info("currency added",
			slog.String("event", "admin.currency_added"),
			slog.String("name", st.Name),
			slog.String("kind", st.Kind),
		)
		return tghelpers.SendMD(c,
			fmt.Sprintf("Currency %s added.", st.Name), keyboards.AdminPanel())

	case PaymentName:
		if text == "" {
			return tghelpers.SendText(c, "Send the payment method name:")
		}
		e.sessions.Delete(userID)
		err := e.store.AddPaymentMethod(ctx, storage.PaymentMethod{Name: text, Kind: st.Kind})
		if errors.Is(err, storage.ErrDuplicate) {
			return tghelpers.SendMD(c,
				fmt.Sprintf("Payment method %s already exists.", text), keyboards.AdminPanel())
		}
		if err != nil {
			return err
		}
		return tghelpers.SendMD(c,
			fmt.Sprintf("Payment method %s added.", text), keyboards.AdminPanel())

	case ChannelID:
		if text == "" {
			return tghelpers.SendText(c, "Send the channel id (@name or -100...):")
		}
		e.sessions.Put(userID, ChannelURL{ID: text})
		return tghelpers.SendText(c, "Send the channel invite link:")

	case ChannelURL:
		if text == "" {
			return tghelpers.SendText(c, "Send the channel invite link:")
		}
		e.sessions.Delete(userID)
		err := e.store.AddChannel(ctx, st.ID, text)
		if errors.Is(err, storage.ErrDuplicate) {
			return tghelpers.SendMD(c,
				fmt.Sprintf("Channel %s is already required.", st.ID), keyboards.AdminPanel())
		}
		if err != nil {
			return err
		}
		return tghelpers.SendMD(c,
			fmt.Sprintf("Channel %s added.", st.ID), keyboards.AdminPanel())

	case BannerText:
		if text == "" {
			return tghelpers.SendText(c, "Send the banner text:")
		}
		e.sessions.Delete(userID)
		if err := e.store.SetBanner(ctx, text); err != nil {
			return err
		}
		return tghelpers.SendMD(c, "Banner updated.", keyboards.AdminPanel())

	case UserID:
		target, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return tghelpers.SendText(c, "Please send a numeric user id:")
		}
		e.sessions.Delete(userID)
		if st.Ban {
			if err := e.store.BanUser(ctx, target); err != nil {
				return err
			}
			logger.SVCAdmin.Info("user banned",
				slog.String("event", "admin.user_banned"),
				slog.Int64("target", target),
			)
			return tghelpers.SendMD(c,
				fmt.Sprintf("User %d banned.", target), keyboards.AdminPanel())
		}
		if err := e.store.UnbanUser(ctx, target); err != nil {
			return err
		}
		logger.SVCAdmin.Info("user unbanned",
			slog.String("event", "admin.user_unbanned"),
			slog.Int64("target", target),
		)
		return tghelpers.SendMD(c,
			fmt.Sprintf("User %d unbanned.", target), keyboards.AdminPanel())

	case BroadcastText:
		if text == "" {
			return tghelpers.SendText(c, "Send the broadcast text:")
		}
		e.sessions.Put(userID, BroadcastConfirm{Photo: st.Photo, Text: text})
		preview := "*Broadcast preview*\n\n" + text
		if st.Photo != nil {
			preview += "\n\n(with the photo you sent)"
		}
		return tghelpers.SendMD(c, preview, keyboards.BroadcastConfirm())
	}

	return nil
}

// runBroadcast fans the message out to every active user. A failed delivery
// marks the recipient inactive so future broadcasts skip them.
func (e *Engine) runBroadcast(c tele.Context, st BroadcastConfirm) error {
	ctx := tghelpers.BuildContext(c)
	e.sessions.Delete(c.Sender().ID)

	ids, err := e.store.AllUserIDs(ctx)
	if err != nil {
		return err
	}

	var delivered, failed int
	for _, id := range ids {
		var sendErr error
		if st.Photo != nil {
			photo := *st.Photo
			photo.Caption = st.Text
			sendErr = e.notifier.SendPhoto(c, id, &photo)
		} else {
			sendErr = e.notifier.SendText(c, id, st.Text)
		}
		if sendErr != nil {
			failed++
			logger.SVCBroadcast.Warn("delivery failed",
				slog.String("event", "broadcast.delivery_failed"),
				slog.Int64("user_id", id),
				slog.String("err", sendErr.Error()),
			)
			if err := e.store.DeactivateUser(ctx, id); err != nil {
				logger.SVCBroadcast.Warn("deactivate failed",
					slog.String("event", "broadcast.deactivate_failed"),
					slog.Int64("user_id", id),
					slog.String("err", err.Error()),
				)
			}
			continue
		}
		delivered++
	}

	logger.SVCBroadcast.Info("broadcast finished",
		slog.String("event", "broadcast.finished"),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
	)
	return tghelpers.SendMD(c,
		fmt.Sprintf("Broadcast finished: delivered %d, failed %d.", delivered, failed),
		keyboards.AdminPanel())
}
