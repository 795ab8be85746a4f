package storage

import "time"

// Currency kinds.
const (
	KindCrypto = "crypto"
	KindFiat   = "fiat"
)

// Bot status values stored in bot_status.
const (
	StatusOn  = "on"
	StatusOff = "off"
)

// User is a bot user. is_active flips to false when broadcast delivery fails.
type User struct {
	ID        int64     `db:"id"`
	FullName  string    `db:"full_name"`
	Username  string    `db:"username"`
	IsBanned  bool      `db:"is_banned"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// Currency describes an exchangeable currency. Amount bounds are stored as
// numeric strings and parsed with decimals at validation time.
type Currency struct {
	Name      string `db:"name"`
	Kind      string `db:"kind"`
	MinAmount string `db:"min_amount"`
	MaxAmount string `db:"max_amount"`
	Details   string `db:"details"`
}

// PaymentMethod is a named settlement option scoped to a currency kind.
type PaymentMethod struct {
	Name string `db:"name"`
	Kind string `db:"kind"`
}

// Channel is a Telegram channel users must be subscribed to.
type Channel struct {
	ChannelID string `db:"channel_id"`
	URL       string `db:"url"`
}

// ExchangeRecord is one submitted exchange request. Date carries the
// YYYY-MM-DD-<ISO week> stamp used by the statistics windows.
type ExchangeRecord struct {
	Amount   string `db:"amount"`
	UserID   int64  `db:"user_id"`
	Exchange string `db:"exchange"`
	Date     string `db:"date"`
}

// UserStats aggregates user counters for the admin panel.
type UserStats struct {
	Total  int `db:"total"`
	Active int `db:"active"`
}
