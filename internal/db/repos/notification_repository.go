package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS sent_notifications (
	id         SERIAL PRIMARY KEY,
	event_key  TEXT NOT NULL UNIQUE,
	topic      TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL
)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NotificationRepository records which events already produced an e-mail.
type NotificationRepository struct {
	db    execer
	clock func() time.Time
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db, clock: time.Now}
}

func (r *NotificationRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Record claims key. It returns false when the key was claimed before.
func (r *NotificationRepository) Record(ctx context.Context, key, topic, recipient string) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sent_notifications (event_key, topic, recipient, sent_at) VALUES ($1, $2, $3, $4)",
		key, topic, recipient, r.clock().UTC(),
	)
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Forget drops a claim so a later delivery can retry the send.
func (r *NotificationRepository) Forget(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sent_notifications WHERE event_key=$1", key)
	return err
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
