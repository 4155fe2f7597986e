package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/digitalindian/service-site-api/internal/subscriber/entity"
)

// ErrDuplicateEmail is returned by Insert when the unique email index
// rejects the row.
var ErrDuplicateEmail = errors.New("email already subscribed")

// uniqueViolation is the Postgres SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

type SubscriberRepo struct {
	db *sqlx.DB
}

func NewSubscriberRepo(db *sqlx.DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

// EnsureTable creates the subscribers table if it does not already exist.
// The unique index on email is the backstop for the check-then-insert
// sequence in the service: two concurrent subscribes for the same address
// can both pass the existence check, but only one insert lands.
func (r *SubscriberRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS subscribers (
		id varchar(27) PRIMARY KEY,
		email text NOT NULL,
		subscribed_at timestamptz NOT NULL DEFAULT NOW()
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idx = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_subscribers_email ON subscribers (email);
	`
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return err
	}
	return nil
}

// Exists reports whether a subscriber row with exactly this email is
// present. Matching is case-sensitive.
func (r *SubscriberRepo) Exists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM subscribers WHERE email=$1)`
	var found bool
	if err := r.db.GetContext(ctx, &found, q, email); err != nil {
		return false, err
	}
	return found, nil
}

// Insert stores a new subscriber. Returns ErrDuplicateEmail when the
// unique index rejects the email.
func (r *SubscriberRepo) Insert(ctx context.Context, s *entity.Subscriber) error {
	const q = `INSERT INTO subscribers (id, email, subscribed_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Email, s.SubscribedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// ListEmails returns every subscribed email in insertion order (KSUIDs
// sort by creation time).
func (r *SubscriberRepo) ListEmails(ctx context.Context) ([]string, error) {
	const q = `SELECT email FROM subscribers ORDER BY id`
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, q); err != nil {
		return nil, err
	}
	return emails, nil
}

// Count returns the number of subscriber rows.
func (r *SubscriberRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM subscribers`
	var n int
	if err := r.db.GetContext(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}
