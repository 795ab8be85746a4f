package middleware

import (
	"os"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchanger/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type limiterContext struct {
	tele.Context
	user *tele.User
	upd  tele.Update
}

func (c *limiterContext) Sender() *tele.User  { return c.user }
func (c *limiterContext) Chat() *tele.Chat    { return &tele.Chat{ID: c.user.ID} }
func (c *limiterContext) Update() tele.Update { return c.upd }

func TestRateLimitBlocksAndWarnsTwice(t *testing.T) {
	var (
		passed int
		warned int
		slept  []time.Duration
	)
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  50 * time.Millisecond,
		OnLimited: func(tele.Context) error { warned++; return nil },
		Sleep:     func(d time.Duration) { slept = append(slept, d) },
	})
	handler := mw(func(tele.Context) error { passed++; return nil })
	c := &limiterContext{user: &tele.User{ID: 1}, upd: tele.Update{Message: &tele.Message{}}}

	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	if passed != 1 {
		t.Fatalf("first update should pass, passed = %d", passed)
	}

	for i := 0; i < 3; i++ {
		if err := handler(c); err != nil {
			t.Fatal(err)
		}
	}
	if passed != 1 {
		t.Fatalf("violations must be swallowed, passed = %d", passed)
	}
	if warned != 2 {
		t.Fatalf("only the first two violations warn, warned = %d", warned)
	}
	if len(slept) != 3 {
		t.Fatalf("every violation must hold the caller back, slept %d times", len(slept))
	}
	for _, d := range slept {
		if d <= 0 || d > 50*time.Millisecond {
			t.Fatalf("hold duration out of range: %v", d)
		}
	}

	time.Sleep(60 * time.Millisecond)
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	if passed != 2 {
		t.Fatalf("after the window the update should pass, passed = %d", passed)
	}

	// The violation counter resets once an update passes.
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	if warned != 3 {
		t.Fatalf("a fresh burst warns again, warned = %d", warned)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	var passed int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Sleep:    func(time.Duration) {},
	})
	handler := mw(func(tele.Context) error { passed++; return nil })

	a := &limiterContext{user: &tele.User{ID: 1}, upd: tele.Update{Message: &tele.Message{}}}
	b := &limiterContext{user: &tele.User{ID: 2}, upd: tele.Update{Message: &tele.Message{}}}
	if err := handler(a); err != nil {
		t.Fatal(err)
	}
	if err := handler(b); err != nil {
		t.Fatal(err)
	}
	if passed != 2 {
		t.Fatalf("users must not throttle each other, passed = %d", passed)
	}
}

func TestRateLimitExclusions(t *testing.T) {
	var passed int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  map[string]struct{}{"callback": {}},
		Sleep:    func(time.Duration) {},
	})
	handler := mw(func(tele.Context) error { passed++; return nil })

	c := &limiterContext{user: &tele.User{ID: 1}, upd: tele.Update{Callback: &tele.Callback{}}}
	for i := 0; i < 3; i++ {
		if err := handler(c); err != nil {
			t.Fatal(err)
		}
	}
	if passed != 3 {
		t.Fatalf("excluded update kinds bypass the limiter, passed = %d", passed)
	}
}
