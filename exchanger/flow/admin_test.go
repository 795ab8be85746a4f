package flow

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/exchanger/keyboards"
	"github.com/m3rciful/exchanger/exchanger/storage"
)

func TestCurrencyAddFlow(t *testing.T) {
	store := newFakeStore()
	engine := New(store, newFakeNotifier(), nil)
	c := newFakeContext(1)

	if err := engine.StartCurrencyManage(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActAdd); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBKind, storage.KindCrypto); err != nil {
		t.Fatal(err)
	}

	c.text = "Litecoin (LTC)"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}

	c.text = "zero point one"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	step, _ := engine.sessions.Get(1)
	if _, still := step.(CurrencyMin); !still {
		t.Fatalf("bad minimum should re-prompt, got %T", step)
	}

	c.text = "0.1"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}

	c.text = "0.05"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	step, _ = engine.sessions.Get(1)
	if _, still := step.(CurrencyMax); !still {
		t.Fatalf("maximum below minimum should re-prompt, got %T", step)
	}

	c.text = "50"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	c.text = "Network: Litecoin"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}

	if engine.InProgress(1) {
		t.Fatal("session should end after the insert")
	}
	cur, ok := store.currencies["Litecoin (LTC)"]
	if !ok {
		t.Fatal("currency was not stored")
	}
	if cur.Kind != storage.KindCrypto || cur.MinAmount != "0.1" || cur.MaxAmount != "50" {
		t.Fatalf("stored currency = %+v", cur)
	}
}

func TestCurrencyAddDuplicate(t *testing.T) {
	store := newFakeStore()
	store.addCurErr = storage.ErrDuplicate
	engine := New(store, newFakeNotifier(), nil)
	c := newFakeContext(1)

	engine.sessions.Put(1, CurrencyDetails{Kind: storage.KindFiat, Name: "USD"})
	c.text = "none"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(), "already exists") {
		t.Fatalf("expected duplicate notice, got %q", c.lastSent())
	}
	if engine.InProgress(1) {
		t.Fatal("duplicate insert should still end the session")
	}
}

func TestBanFlow(t *testing.T) {
	store := newFakeStore()
	engine := New(store, newFakeNotifier(), nil)
	c := newFakeContext(1)

	if err := engine.StartUserManage(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActBan); err != nil {
		t.Fatal(err)
	}

	c.text = "not-an-id"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	step, _ := engine.sessions.Get(1)
	if _, still := step.(UserID); !still {
		t.Fatalf("bad id should re-prompt, got %T", step)
	}

	c.text = "42"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if len(store.banned) != 1 || store.banned[0] != 42 {
		t.Fatalf("banned = %v", store.banned)
	}
	if engine.InProgress(1) {
		t.Fatal("session should end after the ban")
	}
}

func TestChannelAddFlow(t *testing.T) {
	store := newFakeStore()
	engine := New(store, newFakeNotifier(), nil)
	c := newFakeContext(1)

	if err := engine.StartChannelManage(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActAdd); err != nil {
		t.Fatal(err)
	}
	c.text = "@news"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	c.text = "https://t.me/news"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if len(store.channels) != 1 || store.channels[0].ChannelID != "@news" {
		t.Fatalf("channels = %+v", store.channels)
	}
}

func TestBannerSetAndRemove(t *testing.T) {
	store := newFakeStore()
	engine := New(store, newFakeNotifier(), nil)
	c := newFakeContext(1)

	if err := engine.StartBannerManage(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActSet); err != nil {
		t.Fatal(err)
	}
	c.text = "Weekend promo!"
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if !store.bannerSet || store.banner != "Weekend promo!" {
		t.Fatalf("banner = %q set=%v", store.banner, store.bannerSet)
	}

	if err := engine.StartBannerManage(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActRemove); err != nil {
		t.Fatal(err)
	}
	if store.bannerSet {
		t.Fatal("banner should be removed")
	}
}

func TestBroadcastMarksUnreachableInactive(t *testing.T) {
	store := newFakeStore()
	store.userIDs = []int64{1, 2, 3}
	notifier := newFakeNotifier()
	notifier.fail[2] = true
	engine := New(store, notifier, nil)
	c := newFakeContext(99)

	if err := engine.StartBroadcast(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActWithoutMedia); err != nil {
		t.Fatal(err)
	}
	c.text = "Maintenance tonight."
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBStartBroadcast, ""); err != nil {
		t.Fatal(err)
	}

	if len(store.deactivated) != 1 || store.deactivated[0] != 2 {
		t.Fatalf("deactivated = %v", store.deactivated)
	}
	if len(notifier.texts[1]) != 1 || len(notifier.texts[3]) != 1 {
		t.Fatal("reachable users should receive the broadcast")
	}
	if !strings.Contains(c.lastSent(), "delivered 2, failed 1") {
		t.Fatalf("report = %q", c.lastSent())
	}
	if engine.InProgress(99) {
		t.Fatal("session should end after the broadcast")
	}
}

func TestPhotoBroadcastFlow(t *testing.T) {
	store := newFakeStore()
	store.userIDs = []int64{5}
	notifier := newFakeNotifier()
	engine := New(store, notifier, nil)
	c := newFakeContext(99)

	if err := engine.StartBroadcast(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBAction, keyboards.ActWithMedia); err != nil {
		t.Fatal(err)
	}

	c.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "photo-1"}}}
	if err := engine.HandlePhoto(c); err != nil {
		t.Fatal(err)
	}
	c.text = "New rates inside."
	if err := engine.HandleText(c); err != nil {
		t.Fatal(err)
	}
	if err := engine.HandleCallback(c, keyboards.CBStartBroadcast, ""); err != nil {
		t.Fatal(err)
	}

	if notifier.photos[5] != 1 {
		t.Fatalf("photo deliveries = %d, want 1", notifier.photos[5])
	}
}
