// Package history persists per-user study history and the last quiz score
// as JSONB documents. Every failure is logged and swallowed: callers see an
// unreachable store the same way they see an empty one.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// Store is the adapter over the histories and users tables. A Store built
// with a nil database is unavailable and every operation is a no-op.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

// WithClock overrides the time source used to stamp appended items.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the id generator used for appended items.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(db *sql.DB, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return "hist-" + uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Available reports whether the store is backed by a database.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

type historyDoc struct {
	Items []json.RawMessage `json:"items"`
}

// List returns uid's items newest first. Entries that cannot be decoded or
// fail validation are logged and skipped.
func (s *Store) List(ctx context.Context, uid string) []study.HistoryItem {
	if !s.Available() {
		return nil
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM histories WHERE uid = ?`, uid,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Error("listing history", "uid", uid, "error", err)
		return nil
	}

	var doc historyDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		s.logger.Error("decoding history document", "uid", uid, "error", err)
		return nil
	}

	items := make([]study.HistoryItem, 0, len(doc.Items))
	for _, raw := range doc.Items {
		item, err := study.UnmarshalHistoryItem(raw)
		if err != nil {
			s.logger.Warn("skipping history item", "uid", uid, "error", err)
			continue
		}
		if err := item.Validate(); err != nil {
			s.logger.Warn("skipping invalid history item", "uid", uid, "id", item.Meta().ID, "error", err)
			continue
		}
		items = append(items, item)
	}
	slices.Reverse(items)
	return items
}

// Append stamps item with a fresh id and the current time and merges it into
// uid's list. Items that fail validation are logged and dropped. The write is a single upsert that creates the document when
// absent and skips the insert when an item with the same id already exists,
// so concurrent appends from other sessions are never overwritten.
func (s *Store) Append(ctx context.Context, uid string, item study.HistoryItem) {
	if !s.Available() {
		return
	}
	if err := item.Validate(); err != nil {
		s.logger.Warn("dropping invalid history item", "uid", uid, "kind", item.Kind(), "error", err)
		return
	}

	stamped, err := study.Stamp(item, s.newID(), s.now())
	if err != nil {
		s.logger.Error("appending history item", "uid", uid, "error", err)
		return
	}
	data, err := study.MarshalHistoryItem(stamped)
	if err != nil {
		s.logger.Error("encoding history item", "uid", uid, "error", err)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO histories (uid, data)
		VALUES (?, jsonb(json_object('items', json_array(json(?)))))
		ON CONFLICT(uid) DO UPDATE
		SET data = jsonb_insert(histories.data, '$.items[#]', json(?))
		WHERE NOT EXISTS (
			SELECT 1 FROM json_each(histories.data, '$.items') AS e
			WHERE json_extract(e.value, '$.id') = ?
		)`,
		uid, string(data), string(data), stamped.Meta().ID,
	)
	if err != nil {
		s.logger.Error("appending history item", "uid", uid, "kind", stamped.Kind(), "error", err)
		return
	}
	s.logger.Debug("history item appended", "uid", uid, "kind", stamped.Kind(), "id", stamped.Meta().ID)
}

// Clear replaces uid's list with an empty one.
func (s *Store) Clear(ctx context.Context, uid string) {
	if !s.Available() {
		return
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO histories (uid, data) VALUES (?, jsonb('{"items":[]}'))
		ON CONFLICT(uid) DO UPDATE SET data = excluded.data`,
		uid,
	)
	if err != nil {
		s.logger.Error("clearing history", "uid", uid, "error", err)
	}
}

// SaveLastScore overwrites uid's last score. The quiz timestamp is assigned
// by the store.
func (s *Store) SaveLastScore(ctx context.Context, uid string, score, total int) {
	if !s.Available() {
		return
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, data)
		VALUES (?, jsonb(json_object(
			'lastScore', ?,
			'lastQuizTimestamp', strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		)))
		ON CONFLICT(uid) DO UPDATE SET data = jsonb_patch(users.data, excluded.data)`,
		uid, study.FormatScore(score, total),
	)
	if err != nil {
		s.logger.Error("saving last score", "uid", uid, "error", err)
	}
}

// LastScore returns uid's last score verbatim, or false when none is stored.
func (s *Store) LastScore(ctx context.Context, uid string) (string, bool) {
	if !s.Available() {
		return "", false
	}

	var score sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT json_extract(data, '$.lastScore') FROM users WHERE uid = ?`, uid,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Error("reading last score", "uid", uid, "error", err)
		return "", false
	}
	return score.String, score.Valid
}
