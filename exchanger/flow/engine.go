// Package flow implements the conversation engine: per-user typed sessions,
// the two exchange flows, and the admin management flows.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/core/telegram/format"
	tghelpers "github.com/m3rciful/exchanger/core/telegram/helpers"
	"github.com/m3rciful/exchanger/core/telegram/state"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
	"log/slog"
)

// Store is the persistence slice the engine needs.
type Store interface {
	CurrenciesByKind(ctx context.Context, kind string) ([]storage.Currency, error)
	Currency(ctx context.Context, name string) (storage.Currency, error)
	PaymentMethodsByKind(ctx context.Context, kind string) ([]storage.PaymentMethod, error)
	AddExchange(ctx context.Context, amount string, userID int64, exchange string, at time.Time) error
	AddCurrency(ctx context.Context, cur storage.Currency) error
	CurrenciesAll(ctx context.Context) ([]storage.Currency, error)
	AddPaymentMethod(ctx context.Context, pm storage.PaymentMethod) error
	PaymentMethodsAll(ctx context.Context) ([]storage.PaymentMethod, error)
	AddChannel(ctx context.Context, channelID, url string) error
	Channels(ctx context.Context) ([]storage.Channel, error)
	SetBanner(ctx context.Context, text string) error
	RemoveBanner(ctx context.Context) error
	BanUser(ctx context.Context, id int64) error
	UnbanUser(ctx context.Context, id int64) error
	AllUserIDs(ctx context.Context) ([]int64, error)
	DeactivateUser(ctx context.Context, id int64) error
}

// Notifier delivers messages to users other than the update sender.
type Notifier interface {
	SendText(c tele.Context, userID int64, text string, opts ...*tele.SendOptions) error
	SendPhoto(c tele.Context, userID int64, photo *tele.Photo, opts ...*tele.SendOptions) error
}

// BotNotifier sends through the update's bot instance.
type BotNotifier struct{}

// SendText implements Notifier.
func (BotNotifier) SendText(c tele.Context, userID int64, text string, opts ...*tele.SendOptions) error {
	var o *tele.SendOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o != nil {
		_, err := c.Bot().Send(&tele.User{ID: userID}, text, o)
		return err
	}
	_, err := c.Bot().Send(&tele.User{ID: userID}, text)
	return err
}

// SendPhoto implements Notifier.
func (BotNotifier) SendPhoto(c tele.Context, userID int64, photo *tele.Photo, opts ...*tele.SendOptions) error {
	var o *tele.SendOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o != nil {
		_, err := c.Bot().Send(&tele.User{ID: userID}, photo, o)
		return err
	}
	_, err := c.Bot().Send(&tele.User{ID: userID}, photo)
	return err
}

// Engine drives all conversations. One session per user; starting a flow
// replaces whatever was active.
type Engine struct {
	store      Store
	notifier   Notifier
	sessions   *state.Store[Step]
	recipients []int64
	now        func() time.Time
}

// New constructs the engine. recipients receive new exchange requests.
func New(store Store, notifier Notifier, recipients []int64) *Engine {
	return &Engine{
		store:      store,
		notifier:   notifier,
		sessions:   state.NewStore[Step](),
		recipients: recipients,
		now:        time.Now,
	}
}

// InProgress reports whether the user has an active conversation.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.InProgress(userID)
}

// Cancel destroys the user's conversation, if any.
func (e *Engine) Cancel(userID int64) {
	e.sessions.Delete(userID)
}

// StartExchange begins an exchange flow in the given direction.
func (e *Engine) StartExchange(c tele.Context, dir Direction) error {
	ctx := tghelpers.BuildContext(c)
	names, err := e.currencyNames(ctx, dir.SourceKind())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		e.sessions.Delete(c.Sender().ID)
		return tghelpers.EditOrSendMD(c,
			fmt.Sprintf("No %s currencies are available yet. Please check back later.", dir.SourceKind()),
			keyboards.BackToMenu())
	}
	e.sessions.Put(c.Sender().ID, SelectSource{Dir: dir})
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("Choose the %s currency you want to exchange:", dir.SourceKind()),
		keyboards.CurrencyList(names))
}

// HandleText feeds a text update into the active conversation.
func (e *Engine) HandleText(c tele.Context) error {
	userID := c.Sender().ID
	step, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}
	text := strings.TrimSpace(c.Text())

	switch st := step.(type) {
	case EnterAmount:
		return e.handleAmount(c, st, text)
	case EnterDetails:
		if text == "" {
			return tghelpers.SendText(c, detailsPrompt(st.Dir, st.Target, st.Method))
		}
		e.sessions.Put(userID, EnterComment{
			Dir: st.Dir, Source: st.Source, Target: st.Target,
			Method: st.Method, Amount: st.Amount, Details: text,
		})
		return tghelpers.SendText(c, `Add a comment to the request, or send "none":`)
	case EnterComment:
		next := ConfirmSubmit{
			Dir: st.Dir, Source: st.Source, Target: st.Target,
			Method: st.Method, Amount: st.Amount, Details: st.Details, Comment: text,
		}
		e.sessions.Put(userID, next)
		return tghelpers.SendMD(c, e.requestSummary(next), keyboards.ConfirmRequest())
	case ConfirmSubmit:
		// Waiting for the submit press; stray text changes nothing.
		return nil
	default:
		return e.handleAdminText(c, step, text)
	}
}

// HandlePhoto feeds a photo update into the active conversation.
func (e *Engine) HandlePhoto(c tele.Context) error {
	userID := c.Sender().ID
	step, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}
	if _, waiting := step.(BroadcastMedia); !waiting {
		return nil
	}
	photo := c.Message().Photo
	if photo == nil {
		return tghelpers.SendText(c, "Please send a photo for the broadcast.")
	}
	e.sessions.Put(userID, BroadcastText{Photo: photo})
	return tghelpers.SendText(c, "Now send the broadcast text:")
}

// HandleCallback feeds a callback into the active conversation. A key the
// current step does not expect is a silent no-op.
func (e *Engine) HandleCallback(c tele.Context, key, payload string) error {
	userID := c.Sender().ID
	step, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}

	switch st := step.(type) {
	case SelectSource:
		if key != keyboards.CBCurrency {
			return nil
		}
		return e.handleSourcePick(c, st, payload)
	case SelectTarget:
		if key != keyboards.CBCurrency {
			return nil
		}
		return e.handleTargetPick(c, st, payload)
	case SelectMethod:
		if key != keyboards.CBPayment {
			return nil
		}
		return e.handleMethodPick(c, st, payload)
	case ConfirmSubmit:
		if key != keyboards.CBSendRequest {
			return nil
		}
		return e.submit(c, st)
	default:
		return e.handleAdminCallback(c, step, key, payload)
	}
}

func (e *Engine) currencyNames(ctx context.Context, kind string) ([]string, error) {
	currencies, err := e.store.CurrenciesByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		names = append(names, cur.Name)
	}
	return names, nil
}

func (e *Engine) handleSourcePick(c tele.Context, st SelectSource, name string) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := e.store.Currency(ctx, name); err != nil {
		if err == storage.ErrNotFound {
			return tghelpers.EditOrSendMD(c, "That currency is no longer available.", keyboards.BackToMenu())
		}
		return err
	}
	targets, err := e.currencyNames(ctx, st.Dir.TargetKind())
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		e.sessions.Delete(c.Sender().ID)
		return tghelpers.EditOrSendMD(c,
			fmt.Sprintf("No %s currencies are available yet. Please check back later.", st.Dir.TargetKind()),
			keyboards.BackToMenu())
	}
	e.sessions.Put(c.Sender().ID, SelectTarget{Dir: st.Dir, Source: name})
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("You pay with %s. Now choose the currency to receive:", name),
		keyboards.CurrencyList(targets))
}

func (e *Engine) handleTargetPick(c tele.Context, st SelectTarget, name string) error {
	ctx := tghelpers.BuildContext(c)
	methods, err := e.store.PaymentMethodsByKind(ctx, storage.KindFiat)
	if err != nil {
		return err
	}
	if len(methods) == 0 {
		e.sessions.Delete(c.Sender().ID)
		return tghelpers.EditOrSendMD(c,
			"No payment methods are configured yet. Please check back later.",
			keyboards.BackToMenu())
	}
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	e.sessions.Put(c.Sender().ID, SelectMethod{Dir: st.Dir, Source: st.Source, Target: name})
	return tghelpers.EditOrSendMD(c, "Choose a payment method:", keyboards.PaymentList(names))
}

func (e *Engine) handleMethodPick(c tele.Context, st SelectMethod, method string) error {
	ctx := tghelpers.BuildContext(c)
	cur, err := e.store.Currency(ctx, st.Source)
	if err != nil {
		return err
	}
	e.sessions.Put(c.Sender().ID, EnterAmount{
		Dir: st.Dir, Source: st.Source, Target: st.Target, Method: method,
	})
	return tghelpers.EditOrSendMD(c, amountPrompt(cur))
}

func (e *Engine) handleAmount(c tele.Context, st EnterAmount, text string) error {
	ctx := tghelpers.BuildContext(c)
	cur, err := e.store.Currency(ctx, st.Source)
	if err != nil {
		if err == storage.ErrNotFound {
			e.sessions.Delete(c.Sender().ID)
			return tghelpers.SendMD(c, "That currency is no longer available.", keyboards.BackToMenu())
		}
		return err
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return tghelpers.SendText(c, "Please enter a valid positive number.\n"+amountPrompt(cur))
	}
	minAmount, errMin := decimal.NewFromString(cur.MinAmount)
	maxAmount, errMax := decimal.NewFromString(cur.MaxAmount)
	if errMin != nil || errMax != nil {
		return fmt.Errorf("currency %s has malformed limits", cur.Name)
	}
	if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
		return tghelpers.SendText(c, "The amount is out of range.\n"+amountPrompt(cur))
	}

	e.sessions.Put(c.Sender().ID, EnterDetails{
		Dir: st.Dir, Source: st.Source, Target: st.Target, Method: st.Method, Amount: amount,
	})
	return tghelpers.SendText(c, detailsPrompt(st.Dir, st.Target, st.Method))
}

func amountPrompt(cur storage.Currency) string {
	return fmt.Sprintf("Enter the amount in %s (min %s, max %s):", cur.Name, cur.MinAmount, cur.MaxAmount)
}

func detailsPrompt(dir Direction, target, method string) string {
	if dir == FiatToCrypto {
		return fmt.Sprintf("Send the %s wallet address that should receive the funds:", target)
	}
	return fmt.Sprintf("Send your %s payment details for the payout:", method)
}

func (e *Engine) requestSummary(st ConfirmSubmit) string {
	var b strings.Builder
	b.WriteString("*Your exchange request*\n\n")
	fmt.Fprintf(&b, "Pair: %s → %s\n", st.Source, st.Target)
	fmt.Fprintf(&b, "Amount: %s %s\n", st.Amount.String(), st.Source)
	fmt.Fprintf(&b, "Payment method: %s\n", st.Method)
	fmt.Fprintf(&b, "Details: %s\n", mdSafe(st.Details))
	if st.Comment != "" && !strings.EqualFold(st.Comment, "none") {
		fmt.Fprintf(&b, "Comment: %s\n", mdSafe(st.Comment))
	}
	b.WriteString("\nSubmit the request?")
	return b.String()
}

func (e *Engine) submit(c tele.Context, st ConfirmSubmit) error {
	user := c.Sender()
	ctx := tghelpers.BuildContext(c)
	e.sessions.Delete(user.ID)

	pair := fmt.Sprintf("%s → %s", st.Source, st.Target)
	amount := st.Amount.String()

	_ = tghelpers.EditOrSendMD(c,
		"✅ Your request has been sent. An operator will contact you shortly.",
		keyboards.BackToMenu())

	summary := fmt.Sprintf(
		"📥 New exchange request\n\nFrom: %s (@%s, id %d)\nPair: %s\nAmount: %s %s\nPayment method: %s\nDetails: %s\nComment: %s",
		senderName(user), user.Username, user.ID,
		pair, amount, st.Source, st.Method, st.Details, orNone(st.Comment),
	)
	markup := keyboards.ApproveReject(user.ID, pair, amount)
	for _, id := range e.recipients {
		if err := e.notifier.SendText(c, id, summary, &tele.SendOptions{ReplyMarkup: markup}); err != nil {
			logger.SVCExchange.Warn("request notify failed",
				slog.String("event", "exchange.notify_failed"),
				slog.Int64("recipient", id),
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	if err := e.store.AddExchange(ctx, amount, user.ID, pair, e.now()); err != nil {
		logger.SVCExchange.Error("history write failed",
			slog.String("event", "exchange.history_failed"),
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return err
	}

	logger.SVCExchange.Info("request submitted",
		slog.String("event", "exchange.submitted"),
		slog.Int64("user_id", user.ID),
		slog.String("pair", pair),
		slog.String("amount", amount),
	)
	return nil
}

// mdSafe escapes user-supplied text rendered inside Markdown messages.
func mdSafe(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

func senderName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "unknown"
	}
	return name
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
