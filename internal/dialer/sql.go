package dialer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autodialer/internal/queue"
	"autodialer/internal/reporting"
	"autodialer/pkg/utils"
)

// SQLStore persists sessions in Postgres.
//
// Schema:
//
//	CREATE TABLE auto_dial_sessions (
//	    id                  UUID PRIMARY KEY,
//	    name                TEXT NOT NULL,
//	    status              TEXT NOT NULL,
//	    pacing_seconds      INT NOT NULL,
//	    total_targets       INT NOT NULL,
//	    completed_calls     INT NOT NULL DEFAULT 0,
//	    successful_connects INT NOT NULL DEFAULT 0,
//	    voicemails_dropped  INT NOT NULL DEFAULT 0,
//	    current_target_id   UUID,
//	    started_at          TIMESTAMPTZ NOT NULL,
//	    ended_at            TIMESTAMPTZ,
//	    updated_at          TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX auto_dial_sessions_open_idx
//	    ON auto_dial_sessions ((true)) WHERE status IN ('active', 'paused');
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const sessionColumns = `
id, name, status, pacing_seconds, total_targets,
completed_calls, successful_connects, voicemails_dropped,
COALESCE(current_target_id::text, ''), started_at, ended_at, updated_at`

func (s *SQLStore) CreateSession(ctx context.Context, sn Session) error {
	const q = `
INSERT INTO auto_dial_sessions (
    id, name, status, pacing_seconds, total_targets,
    completed_calls, successful_connects, voicemails_dropped,
    current_target_id, started_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11)`

	_, err := s.db.ExecContext(ctx, q,
		sn.ID, sn.Name, sn.Status, sn.PacingSeconds, sn.TotalTargets,
		sn.CompletedCalls, sn.SuccessfulConnects, sn.VoicemailsDropped,
		sn.CurrentTargetID, sn.StartedAt, sn.UpdatedAt,
	)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM auto_dial_sessions WHERE id = $1`
	return scanSession(s.db.QueryRowContext(ctx, q, id))
}

func (s *SQLStore) OpenSession(ctx context.Context) (Session, bool, error) {
	const q = `SELECT ` + sessionColumns + `
FROM auto_dial_sessions WHERE status IN ('active', 'paused') LIMIT 1`

	sn, err := scanSession(s.db.QueryRowContext(ctx, q))
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return sn, true, nil
}

func (s *SQLStore) UpdateSession(ctx context.Context, sn Session) error {
	const q = `
UPDATE auto_dial_sessions
SET name = $2,
    status = $3,
    pacing_seconds = $4,
    current_target_id = NULLIF($5, '')::uuid,
    ended_at = $6,
    updated_at = $7
WHERE id = $1`

	res, err := s.db.ExecContext(ctx, q,
		sn.ID, sn.Name, sn.Status, sn.PacingSeconds,
		sn.CurrentTargetID, sn.EndedAt, sn.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLStore) SetCurrentTarget(ctx context.Context, sessionID, targetID string, at time.Time) error {
	const q = `
UPDATE auto_dial_sessions
SET current_target_id = NULLIF($2, '')::uuid, updated_at = $3
WHERE id = $1`

	res, err := s.db.ExecContext(ctx, q, sessionID, targetID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLStore) RecordOutcome(ctx context.Context, sessionID, entryID string, upd queue.OutcomeUpdate, delta CounterDelta, log reporting.CallLog) (Session, error) {
	var out Session
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if _, err := queue.MarkOutcomeTx(ctx, tx, entryID, upd); err != nil {
			return err
		}
		if err := reporting.InsertCallLogTx(ctx, tx, log); err != nil {
			return err
		}

		const q = `
UPDATE auto_dial_sessions
SET completed_calls = completed_calls + $2,
    successful_connects = successful_connects + $3,
    voicemails_dropped = voicemails_dropped + $4,
    updated_at = $5
WHERE id = $1
RETURNING ` + sessionColumns

		var err error
		out, err = scanSession(tx.QueryRowContext(ctx, q,
			sessionID, delta.CompletedCalls, delta.SuccessfulConnects, delta.VoicemailsDropped, upd.At,
		))
		return err
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func lockSession(ctx context.Context, tx *sql.Tx, id string) error {
	const q = `SELECT id FROM auto_dial_sessions WHERE id = $1 FOR UPDATE`
	var got string
	if err := tx.QueryRowContext(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sn Session
	err := row.Scan(
		&sn.ID, &sn.Name, &sn.Status, &sn.PacingSeconds, &sn.TotalTargets,
		&sn.CompletedCalls, &sn.SuccessfulConnects, &sn.VoicemailsDropped,
		&sn.CurrentTargetID, &sn.StartedAt, &sn.EndedAt, &sn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return sn, nil
}
