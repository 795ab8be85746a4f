package flow

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeStore struct {
	currencies  map[string]storage.Currency
	methods     []storage.PaymentMethod
	channels    []storage.Channel
	history     []storage.ExchangeRecord
	banned      []int64
	unbanned    []int64
	userIDs     []int64
	deactivated []int64
	banner      string
	bannerSet   bool
	addCurErr   error
	addPayErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{currencies: make(map[string]storage.Currency)}
}

func (s *fakeStore) put(cur storage.Currency) { s.currencies[cur.Name] = cur }

func (s *fakeStore) CurrenciesByKind(_ context.Context, kind string) ([]storage.Currency, error) {
	var out []storage.Currency
	for _, cur := range s.currencies {
		if cur.Kind == kind {
			out = append(out, cur)
		}
	}
	return out, nil
}

func (s *fakeStore) CurrenciesAll(_ context.Context) ([]storage.Currency, error) {
	var out []storage.Currency
	for _, cur := range s.currencies {
		out = append(out, cur)
	}
	return out, nil
}

func (s *fakeStore) Currency(_ context.Context, name string) (storage.Currency, error) {
	cur, ok := s.currencies[name]
	if !ok {
		return storage.Currency{}, storage.ErrNotFound
	}
	return cur, nil
}

func (s *fakeStore) PaymentMethodsByKind(_ context.Context, kind string) ([]storage.PaymentMethod, error) {
	var out []storage.PaymentMethod
	for _, m := range s.methods {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) PaymentMethodsAll(_ context.Context) ([]storage.PaymentMethod, error) {
	return s.methods, nil
}

func (s *fakeStore) AddExchange(_ context.Context, amount string, userID int64, exchange string, at time.Time) error {
	s.history = append(s.history, storage.ExchangeRecord{
		Amount: amount, UserID: userID, Exchange: exchange, Date: storage.WeekStamp(at),
	})
	return nil
}

func (s *fakeStore) AddCurrency(_ context.Context, cur storage.Currency) error {
	if s.addCurErr != nil {
		return s.addCurErr
	}
	s.currencies[cur.Name] = cur
	return nil
}

func (s *fakeStore) AddPaymentMethod(_ context.Context, pm storage.PaymentMethod) error {
	if s.addPayErr != nil {
		return s.addPayErr
	}
	s.methods = append(s.methods, pm)
	return nil
}

func (s *fakeStore) AddChannel(_ context.Context, channelID, url string) error {
	s.channels = append(s.channels, storage.Channel{ChannelID: channelID, URL: url})
	return nil
}

func (s *fakeStore) Channels(_ context.Context) ([]storage.Channel, error) {
	return s.channels, nil
}

func (s *fakeStore) SetBanner(_ context.Context, text string) error {
	s.banner, s.bannerSet = text, true
	return nil
}

func (s *fakeStore) RemoveBanner(_ context.Context) error {
	s.banner, s.bannerSet = "", false
	return nil
}

func (s *fakeStore) BanUser(_ context.Context, id int64) error {
	s.banned = append(s.banned, id)
	return nil
}

func (s *fakeStore) UnbanUser(_ context.Context, id int64) error {
	s.unbanned = append(s.unbanned, id)
	return nil
}

func (s *fakeStore) AllUserIDs(_ context.Context) ([]int64, error) {
	return s.userIDs, nil
}

func (s *fakeStore) DeactivateUser(_ context.Context, id int64) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

type fakeNotifier struct {
	texts  map[int64][]string
	photos map[int64]int
	fail   map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		texts:  make(map[int64][]string),
		photos: make(map[int64]int),
		fail:   make(map[int64]bool),
	}
}

func (n *fakeNotifier) SendText(_ tele.Context, userID int64, text string, _ ...*tele.SendOptions) error {
	if n.fail[userID] {
		return fmt.Errorf("blocked by user %d", userID)
	}
	n.texts[userID] = append(n.texts[userID], text)
	return nil
}

func (n *fakeNotifier) SendPhoto(_ tele.Context, userID int64, _ *tele.Photo, _ ...*tele.SendOptions) error {
	if n.fail[userID] {
		return fmt.Errorf("blocked by user %d", userID)
	}
	n.photos[userID]++
	return nil
}

type fakeContext struct {
	tele.Context
	user  *tele.User
	text  string
	cb    *tele.Callback
	msg   *tele.Message
	bag   map[string]any
	sent  []string
	resps []*tele.CallbackResponse
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		user: &tele.User{ID: userID, FirstName: "Test", Username: "tester"},
		bag:  make(map[string]any),
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Message() *tele.Message   { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Get(k string) any         { return f.bag[k] }
func (f *fakeContext) Set(k string, v any)      { f.bag[k] = v }
func (f *fakeContext) Delete() error            { return nil }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 {
		f.resps = append(f.resps, resp[0])
	} else {
		f.resps = append(f.resps, &tele.CallbackResponse{})
	}
	return nil
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func seedExchangeData(store *fakeStore) {
	store.put(storage.Currency{Name: "USD", Kind: storage.KindFiat, MinAmount: "10", MaxAmount: "10000"})
	store.put(storage.Currency{Name: "Bitcoin (BTC)", Kind: storage.KindCrypto, MinAmount: "0.001", MaxAmount: "10"})
	store.methods = []storage.PaymentMethod{
		{Name: "Bank Transfer", Kind: storage.KindFiat},
		{Name: "PayPal", Kind: storage.KindFiat},
	}
}

func TestExchangeFlowHappyPath(t *testing.T) {
	store := newFakeStore()
	seedExchangeData(store)
	notifier := newFakeNotifier()
	notifier.fail[201] = true
	engine := New(store, notifier, []int64{200, 201, 202})

	c := newFakeContext(7)
	if err := engine.StartExchange(c, FiatToCrypto); err != nil {
		t.Fatal(err)
	}
	if !engine.InProgress(7) {
		t.Fatal("session should be active after StartExchange")
	}

	if err := engine.HandleCallback(c, keyboards.CBCurrency, "USD"); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBCurrency, "Bitcoin (BTC)"); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBPayment, "Bank Transfer"); err != nil {
		t.Fatal(err)
	}

	c.text = "not-a-number"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(), "valid positive number") {
		t.Fatalf("expected re-prompt, got %q", c.lastSent())
	}

	c.text = "100"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	c.text = "bc1qexampleaddress"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	c.text = "none"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}

	step, ok := engine.sessions.Get(7)
	if !ok {
		t.Fatal("session should exist at confirm")
	}
	if _, ok := step.(ConfirmSubmit); !ok {
		t.Fatalf("expected ConfirmSubmit, got %T", step)
	}

	if err := engine.HandleCallback(c, keyboards.CBSendRequest, ""); err != nil {
		t.Fatal(err)
	}

	if engine.InProgress(7) {
		t.Fatal("session should be destroyed after submit")
	}
	if len(store.history) != 1 {
		t.Fatalf("history rows = %d, want exactly 1", len(store.history))
	}
	rec := store.history[0]
	if rec.Exchange != "USD → Bitcoin (BTC)" {
		t.Fatalf("pair = %q", rec.Exchange)
	}
	if rec.Amount != "100" || rec.UserID != 7 {
		t.Fatalf("record = %+v", rec)
	}
	if len(notifier.texts[200]) != 1 || len(notifier.texts[202]) != 1 {
		t.Fatal("reachable recipients should each get one notification")
	}
	if len(notifier.texts[201]) != 0 {
		t.Fatal("failing recipient should not have recorded deliveries")
	}
}

func TestAmountBounds(t *testing.T) {
	store := newFakeStore()
	seedExchangeData(store)
	engine := New(store, newFakeNotifier(), nil)

	c := newFakeContext(8)
	engine.sessions.Put(8, EnterAmount{
		Dir: CryptoToFiat, Source: "Bitcoin (BTC)", Target: "USD", Method: "Bank Transfer",
	})

	for _, bad := range []string{"0", "-1", "0.0005", "11"} {
		c.text = bad
		if err := engine.HandleText(c); err != nil {
			t.Fatal(err)
		}
		step, _ := engine.sessions.Get(8)
		if _, still := step.(EnterAmount); !still {
			t.Fatalf("amount %q should not advance the flow", bad)
		}
	}

	c.text = "0.5"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	step, _ := engine.sessions.Get(8)
	details, ok := step.(EnterDetails)
	if !ok {
		t.Fatalf("expected EnterDetails, got %T", step)
	}
	if details.Amount.String() != "0.5" {
		t.Fatalf("amount = %s", details.Amount)
	}
}

func TestConfirmIgnoresStrayInput(t *testing.T) {
	store := newFakeStore()
	seedExchangeData(store)
	engine := New(store, newFakeNotifier(), []int64{200})

	confirm := ConfirmSubmit{Dir: FiatToCrypto, Source: "USD", Target: "Bitcoin (BTC)"}
	engine.sessions.Put(9, confirm)

	c := newFakeContext(9)
	if err := engine.HandleCallback(c, keyboards.CBCurrency, "EUR"); err != nil {
		t.Fatal(err)
	}
	c.text = "hello?"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}

	if step, ok := engine.sessions.Get(9); !ok {
		t.Fatal("session should survive stray input")
	} else if _, still := step.(ConfirmSubmit); !still {
		t.Fatalf("step changed to %T", step)
	}
	if len(store.history) != 0 {
		t.Fatal("stray input must not submit")
	}
}

func TestStartExchangeWithoutCurrencies(t *testing.T) {
	engine := New(newFakeStore(), newFakeNotifier(), nil)
	c := newFakeContext(10)
	if err := engine.StartExchange(c, FiatToCrypto); err != nil {
		t.Fatal(err)
	}
	if engine.InProgress(10) {
		t.Fatal("no session should start without currencies")
	}
	if !strings.Contains(c.lastSent(), "No fiat currencies") {
		t.Fatalf("expected guidance, got %q", c.lastSent())
	}
}

func TestStartingFlowReplacesSession(t *testing.T) {
	store := newFakeStore()
	seedExchangeData(store)
	engine := New(store, newFakeNotifier(), nil)

	c := newFakeContext(11)
	engine.sessions.Put(11, ConfirmSubmit{Source: "USD", Target: "Bitcoin (BTC)"})
	if err := engine.StartExchange(c, CryptoToFiat); err != nil {
		t.Fatal(err)
	}
	step, _ := engine.sessions.Get(11)
	src, ok := step.(SelectSource)
	if !ok {
		t.Fatalf("expected fresh SelectSource, got %T", step)
	}
	if src.Dir != CryptoToFiat {
		t.Fatal("direction should come from the new flow")
	}
}

func TestCancelDestroysSession(t *testing.T) {
	engine := New(newFakeStore(), newFakeNotifier(), nil)
	engine.sessions.Put(12, EnterComment{})
	engine.Cancel(12)
	if engine.InProgress(12) {
		t.Fatal("Cancel should remove the session")
	}
}
