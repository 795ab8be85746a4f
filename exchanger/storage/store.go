package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate marks a unique-key violation on insert.
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound marks a single-row lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// Store wraps the Postgres connection with the bot's persistence contract.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store over an established connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// AddUser registers a user. Returns ErrDuplicate if the user already exists.
func (s *Store) AddUser(ctx context.Context, id int64, fullName, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, username) VALUES ($1, $2, $3)`,
		id, fullName, username,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// BanUser marks a user banned.
func (s *Store) BanUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_banned = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	return nil
}

// UnbanUser lifts a ban.
func (s *Store) UnbanUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_banned = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("unban user: %w", err)
	}
	return nil
}

// IsBanned reports whether the user is banned. Unknown users are not banned.
func (s *Store) IsBanned(ctx context.Context, id int64) (bool, error) {
	var banned bool
	err := s.db.GetContext(ctx, &banned, `SELECT is_banned FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is banned: %w", err)
	}
	return banned, nil
}

// DeactivateUser marks a user unreachable for broadcasts.
func (s *Store) DeactivateUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

// UserStats returns total and active user counts.
func (s *Store) UserStats(ctx context.Context) (UserStats, error) {
	var stats UserStats
	err := s.db.GetContext(ctx, &stats,
		`SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active FROM users`)
	if err != nil {
		return UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// AllUserIDs returns ids of active users for broadcast fan-out.
func (s *Store) AllUserIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all user ids: %w", err)
	}
	return ids, nil
}

// AddCurrency inserts a currency. Returns ErrDuplicate if the name is taken.
func (s *Store) AddCurrency(ctx context.Context, cur Currency) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO currencies (name, kind, min_amount, max_amount, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		cur.Name, cur.Kind, cur.MinAmount, cur.MaxAmount, cur.Details,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add currency: %w", err)
	}
	return nil
}

// DeleteCurrency removes a currency by name.
func (s *Store) DeleteCurrency(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM currencies WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	return nil
}

// CurrenciesByKind lists currencies of a kind, alphabetically.
func (s *Store) CurrenciesByKind(ctx context.Context, kind string) ([]Currency, error) {
	out := []Currency{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT name, kind, min_amount, max_amount, details
		 FROM currencies WHERE kind = $1 ORDER BY name`, kind)
	if err != nil {
		return nil, fmt.Errorf("currencies by kind: %w", err)
	}
	return out, nil
}

// CurrenciesAll lists every currency, alphabetically.
func (s *Store) CurrenciesAll(ctx context.Context) ([]Currency, error) {
	out := []Currency{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT name, kind, min_amount, max_amount, details FROM currencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("currencies: %w", err)
	}
	return out, nil
}

// Currency fetches a single currency by name. Returns ErrNotFound when absent.
func (s *Store) Currency(ctx context.Context, name string) (Currency, error) {
	var cur Currency
	err := s.db.GetContext(ctx, &cur,
		`SELECT name, kind, min_amount, max_amount, details
		 FROM currencies WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return Currency{}, ErrNotFound
	}
	if err != nil {
		return Currency{}, fmt.Errorf("currency: %w", err)
	}
	return cur, nil
}

// AddPaymentMethod inserts a payment method. Returns ErrDuplicate on conflict.
func (s *Store) AddPaymentMethod(ctx context.Context, pm PaymentMethod) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_methods (name, kind) VALUES ($1, $2)`, pm.Name, pm.Kind)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add payment method: %w", err)
	}
	return nil
}

// DeletePaymentMethod removes a payment method by name.
func (s *Store) DeletePaymentMethod(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return nil
}

// PaymentMethodsByKind lists payment methods of a kind, alphabetically.
func (s *Store) PaymentMethodsByKind(ctx context.Context, kind string) ([]PaymentMethod, error) {
	out := []PaymentMethod{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT name, kind FROM payment_methods WHERE kind = $1 ORDER BY name`, kind)
	if err != nil {
		return nil, fmt.Errorf("payment methods by kind: %w", err)
	}
	return out, nil
}

// PaymentMethodsAll lists every payment method, alphabetically.
func (s *Store) PaymentMethodsAll(ctx context.Context) ([]PaymentMethod, error) {
	out := []PaymentMethod{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT name, kind FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("payment methods: %w", err)
	}
	return out, nil
}

// AddChannel registers a required subscription channel.
func (s *Store) AddChannel(ctx context.Context, channelID, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, url) VALUES ($1, $2)`, channelID, url)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add channel: %w", err)
	}
	return nil
}

// DeleteChannel removes a channel by id.
func (s *Store) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// Channels lists all required subscription channels.
func (s *Store) Channels(ctx context.Context) ([]Channel, error) {
	out := []Channel{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT channel_id, url FROM channels ORDER BY channel_id`)
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	return out, nil
}

// Banner returns the active banner text, if any.
func (s *Store) Banner(ctx context.Context) (string, bool, error) {
	var text string
	err := s.db.GetContext(ctx, &text, `SELECT text FROM banners WHERE id = '1'`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("banner: %w", err)
	}
	return text, true, nil
}

// SetBanner stores the banner text, replacing any previous one.
func (s *Store) SetBanner(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banners (id, text) VALUES ('1', $1)
		 ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text`, text)
	if err != nil {
		return fmt.Errorf("set banner: %w", err)
	}
	return nil
}

// RemoveBanner deletes the banner.
func (s *Store) RemoveBanner(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM banners WHERE id = '1'`)
	if err != nil {
		return fmt.Errorf("remove banner: %w", err)
	}
	return nil
}

// BotStatus returns the global bot status. Missing row counts as on.
func (s *Store) BotStatus(ctx context.Context) (string, error) {
	var status string
	err := s.db.GetContext(ctx, &status, `SELECT status FROM bot_status WHERE id = '1'`)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusOn, nil
	}
	if err != nil {
		return "", fmt.Errorf("bot status: %w", err)
	}
	return status, nil
}

// SetBotStatus switches the global bot status.
func (s *Store) SetBotStatus(ctx context.Context, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_status (id, status) VALUES ('1', $1)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`, status)
	if err != nil {
		return fmt.Errorf("set bot status: %w", err)
	}
	return nil
}

// AddExchange appends one history row stamped with the given time.
func (s *Store) AddExchange(ctx context.Context, amount string, userID int64, exchange string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchange_history (amount, user_id, exchange, date)
		 VALUES ($1, $2, $3, $4)`,
		amount, userID, exchange, WeekStamp(at),
	)
	if err != nil {
		return fmt.Errorf("add exchange: %w", err)
	}
	return nil
}

// History returns all exchange records, oldest first.
func (s *Store) History(ctx context.Context) ([]ExchangeRecord, error) {
	out := []ExchangeRecord{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT amount, user_id, exchange, date FROM exchange_history ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

// WeekStamp renders the history date stamp: ISO date plus ISO week number.
func WeekStamp(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("%s-%d", t.Format("2006-01-02"), week)
}
