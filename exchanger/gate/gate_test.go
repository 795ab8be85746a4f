package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeStore struct {
	status    string
	statusErr error
	banned    map[int64]bool
	channels  []storage.Channel
	banner    string
	hasBanner bool
}

func (s *fakeStore) BotStatus(context.Context) (string, error) {
	if s.statusErr != nil {
		return "", s.statusErr
	}
	if s.status == "" {
		return storage.StatusOn, nil
	}
	return s.status, nil
}

func (s *fakeStore) IsBanned(_ context.Context, id int64) (bool, error) {
	return s.banned[id], nil
}

func (s *fakeStore) Channels(context.Context) ([]storage.Channel, error) {
	return s.channels, nil
}

func (s *fakeStore) Banner(context.Context) (string, bool, error) {
	return s.banner, s.hasBanner, nil
}

type fakeMembership struct {
	roles map[string]tele.MemberStatus
	errs  map[string]error
}

func (m *fakeMembership) MemberStatus(_ tele.Context, channelID string, _ int64) (tele.MemberStatus, error) {
	if err := m.errs[channelID]; err != nil {
		return "", err
	}
	if role, ok := m.roles[channelID]; ok {
		return role, nil
	}
	return tele.Member, nil
}

type fakeContext struct {
	tele.Context
	user  *tele.User
	cb    *tele.Callback
	bag   map[string]any
	sent  []string
	resps []*tele.CallbackResponse
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		user: &tele.User{ID: userID},
		bag:  make(map[string]any),
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Get(k string) any         { return f.bag[k] }
func (f *fakeContext) Set(k string, v any)      { f.bag[k] = v }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
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

func passThrough(called *bool) tele.HandlerFunc {
	return func(tele.Context) error {
		*called = true
		return nil
	}
}

func gatesWith(store *fakeStore, membership Membership, admins ...int64) *Gates {
	adminSet := make(map[int64]bool, len(admins))
	for _, id := range admins {
		adminSet[id] = true
	}
	return &Gates{
		Store:      store,
		Membership: membership,
		IsAdmin:    func(id int64) bool { return adminSet[id] },
	}
}

func TestBotStatusOffHaltsUsers(t *testing.T) {
	g := gatesWith(&fakeStore{status: storage.StatusOff}, &fakeMembership{})
	c := newFakeContext(5)

	var called bool
	if err := g.BotStatus(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("next should not run while the bot is off")
	}
	if len(c.sent) == 0 {
		t.Fatal("the user should be told the bot is unavailable")
	}
}

func TestBotStatusOffAdminBypass(t *testing.T) {
	g := gatesWith(&fakeStore{status: storage.StatusOff}, &fakeMembership{}, 5)
	c := newFakeContext(5)

	var called bool
	if err := g.BotStatus(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("admins must bypass the status gate")
	}
}

func TestBotStatusErrorFailsOpen(t *testing.T) {
	g := gatesWith(&fakeStore{statusErr: errors.New("db down")}, &fakeMembership{})
	c := newFakeContext(5)

	var called bool
	if err := g.BotStatus(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("a status lookup failure must not block users")
	}
}

func TestBanGate(t *testing.T) {
	store := &fakeStore{banned: map[int64]bool{5: true}}
	g := gatesWith(store, &fakeMembership{})

	c := newFakeContext(5)
	var called bool
	if err := g.Ban(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("banned users must be halted")
	}

	c = newFakeContext(6)
	called = false
	if err := g.Ban(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("unbanned users must pass")
	}
}

func TestSubscriptionHaltsLeftUsers(t *testing.T) {
	store := &fakeStore{channels: []storage.Channel{{ChannelID: "@news", URL: "https://t.me/news"}}}
	membership := &fakeMembership{roles: map[string]tele.MemberStatus{"@news": tele.Left}}
	g := gatesWith(store, membership)
	c := newFakeContext(5)

	var called bool
	if err := g.Subscription(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("users outside the channel must be halted")
	}
	if len(c.sent) == 0 {
		t.Fatal("the join prompt should be sent")
	}
}

func TestSubscriptionSkipsLookupErrors(t *testing.T) {
	store := &fakeStore{channels: []storage.Channel{
		{ChannelID: "@broken", URL: "https://t.me/broken"},
		{ChannelID: "@news", URL: "https://t.me/news"},
	}}
	membership := &fakeMembership{
		errs:  map[string]error{"@broken": errors.New("chat not found")},
		roles: map[string]tele.MemberStatus{"@news": tele.Member},
	}
	g := gatesWith(store, membership)
	c := newFakeContext(5)

	var called bool
	if err := g.Subscription(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("a lookup failure must not lock the user out")
	}
}

func TestBannerOnlyOnExchangeCallback(t *testing.T) {
	store := &fakeStore{banner: "Promo!", hasBanner: true}
	g := gatesWith(store, &fakeMembership{})

	c := newFakeContext(5)
	c.cb = &tele.Callback{Unique: "exchange"}
	var called bool
	if err := g.Banner(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("the banner never blocks the update")
	}
	if len(c.resps) != 1 || !c.resps[0].ShowAlert || c.resps[0].Text != "Promo!" {
		t.Fatalf("responses = %+v", c.resps)
	}

	c = newFakeContext(5)
	c.cb = &tele.Callback{Unique: "profile"}
	called = false
	if err := g.Banner(passThrough(&called))(c); err != nil {
		t.Fatal(err)
	}
	if !called || len(c.resps) != 0 {
		t.Fatal("other callbacks must not trigger the banner")
	}
}
