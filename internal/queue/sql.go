package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore persists the queue in the auto_dial_queue table.
// Assumed schema:
//
//	auto_dial_queue (
//	  id UUID PRIMARY KEY,
//	  lead_id TEXT NOT NULL,
//	  phone_number TEXT NOT NULL,
//	  priority INT NOT NULL,
//	  attempt_count INT NOT NULL DEFAULT 0,
//	  status TEXT NOT NULL,
//	  last_attempt_at TIMESTAMPTZ,
//	  last_attempt_outcome TEXT NOT NULL DEFAULT '',
//	  do_not_call_until TIMESTAMPTZ,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	)
//	CREATE UNIQUE INDEX auto_dial_queue_open_target_idx
//	    ON auto_dial_queue (lead_id, phone_number)
//	    WHERE status IN ('queued', 'calling');
//
// Transitions are per-row atomic updates scoped by primary key plus a
// current-status guard; no table locks.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const entryColumns = `
id, lead_id, phone_number, priority, attempt_count, status,
last_attempt_at, last_attempt_outcome, do_not_call_until, created_at, updated_at
`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.LeadID,
		&e.PhoneNumber,
		&e.Priority,
		&e.AttemptCount,
		&e.Status,
		&e.LastAttemptAt,
		&e.LastAttemptOutcome,
		&e.DoNotCallUntil,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (s *SQLStore) Insert(ctx context.Context, e Entry) (bool, error) {
	// Idempotent per (lead_id, phone_number) over open entries; the
	// partial unique index arbitrates concurrent inserts.
	const q = `
INSERT INTO auto_dial_queue (
  id, lead_id, phone_number, priority, attempt_count, status,
  last_attempt_at, last_attempt_outcome, do_not_call_until, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (lead_id, phone_number) WHERE status IN ('queued','calling') DO NOTHING
`
	res, err := s.db.ExecContext(ctx, q,
		e.ID,
		e.LeadID,
		e.PhoneNumber,
		e.Priority,
		e.AttemptCount,
		e.Status,
		e.LastAttemptAt,
		e.LastAttemptOutcome,
		e.DoNotCallUntil,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Entry, error) {
	const q = `
SELECT ` + entryColumns + `
FROM auto_dial_queue
WHERE id = $1
`
	e, err := scanEntry(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (s *SQLStore) NextEligible(ctx context.Context, now time.Time) (Entry, bool, error) {
	const q = `
SELECT ` + entryColumns + `
FROM auto_dial_queue
WHERE status = 'queued'
  AND attempt_count < $1
  AND (do_not_call_until IS NULL OR do_not_call_until <= $2)
ORDER BY priority DESC, created_at ASC
LIMIT 1
`
	e, err := scanEntry(s.db.QueryRowContext(ctx, q, MaxAttempts, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *SQLStore) MarkCalling(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE auto_dial_queue
SET status = 'calling', updated_at = $2
WHERE id = $1 AND status = 'queued'
`
	res, err := s.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *SQLStore) MarkOutcome(ctx context.Context, id string, upd OutcomeUpdate) (Entry, error) {
	return markOutcome(ctx, s.db, id, upd)
}

// MarkOutcomeTx applies an outcome inside an enclosing transaction. The
// dialer store uses it to keep entry, session counters and call log in one
// transaction.
func MarkOutcomeTx(ctx context.Context, tx *sql.Tx, id string, upd OutcomeUpdate) (Entry, error) {
	return markOutcome(ctx, tx, id, upd)
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func markOutcome(ctx context.Context, q execQuerier, id string, upd OutcomeUpdate) (Entry, error) {
	const stmt = `
UPDATE auto_dial_queue
SET attempt_count = attempt_count + 1,
    status = $2,
    last_attempt_at = $3,
    last_attempt_outcome = $4,
    do_not_call_until = $5,
    updated_at = $3
WHERE id = $1 AND status = 'calling'
RETURNING ` + entryColumns + `
`
	e, err := scanEntry(q.QueryRowContext(ctx, stmt, id, upd.Status, upd.At, upd.Outcome, upd.DoNotCallUntil))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrInvalidTransition
		}
		return Entry{}, err
	}
	return e, nil
}

func (s *SQLStore) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	const q = `
UPDATE auto_dial_queue
SET status = 'queued'
WHERE status = 'calling' AND updated_at < $1
`
	res, err := s.db.ExecContext(ctx, q, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLStore) OpenCount(ctx context.Context) (int, error) {
	const q = `
SELECT COUNT(*)
FROM auto_dial_queue
WHERE status = 'queued' AND attempt_count < $1
`
	var n int
	if err := s.db.QueryRowContext(ctx, q, MaxAttempts).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
