package reporting

import (
	"context"
	"database/sql"
)

// SQLRepo reads and corrects the call_logs table.
// Assumed schema:
//
//	call_logs (
//	  id UUID PRIMARY KEY,
//	  session_id UUID NOT NULL,
//	  entry_id UUID NOT NULL,
//	  lead_id TEXT NOT NULL,
//	  phone_number TEXT NOT NULL,
//	  attempt_number INT NOT NULL,
//	  outcome TEXT NOT NULL,
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  provider_call_id TEXT NOT NULL DEFAULT '',
//	  callback_scheduled BOOLEAN NOT NULL DEFAULT false,
//	  appointment_scheduled BOOLEAN NOT NULL DEFAULT false,
//	  created_at TIMESTAMPTZ NOT NULL
//	)
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

const callLogColumns = `
id, session_id, entry_id, lead_id, phone_number, attempt_number,
outcome, duration_seconds, provider_call_id,
callback_scheduled, appointment_scheduled, created_at
`

func (r *SQLRepo) ListBySession(ctx context.Context, sessionID string) ([]CallLog, error) {
	const q = `
SELECT ` + callLogColumns + `
FROM call_logs
WHERE session_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallLog, 0)
	for rows.Next() {
		var l CallLog
		if err := rows.Scan(
			&l.ID,
			&l.SessionID,
			&l.EntryID,
			&l.LeadID,
			&l.PhoneNumber,
			&l.AttemptNumber,
			&l.Outcome,
			&l.DurationSeconds,
			&l.ProviderCallID,
			&l.CallbackScheduled,
			&l.AppointmentScheduled,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLRepo) UpdateProviderStatus(ctx context.Context, providerCallID, outcome string, durationSeconds int) error {
	// Missing rows are benign: a callback can outrun the dispatch
	// transaction, and retried callbacks may reference pruned history.
	const q = `
UPDATE call_logs
SET outcome = $2, duration_seconds = $3
WHERE provider_call_id = $1
`
	_, err := r.db.ExecContext(ctx, q, providerCallID, outcome, durationSeconds)
	return err
}

// InsertCallLogTx appends a ledger row inside an enclosing transaction.
// The dialer store uses it so the log, session counters, and queue entry
// land atomically.
func InsertCallLogTx(ctx context.Context, tx *sql.Tx, l CallLog) error {
	const q = `
INSERT INTO call_logs (
  id, session_id, entry_id, lead_id, phone_number, attempt_number,
  outcome, duration_seconds, provider_call_id,
  callback_scheduled, appointment_scheduled, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err := tx.ExecContext(ctx, q,
		l.ID,
		l.SessionID,
		l.EntryID,
		l.LeadID,
		l.PhoneNumber,
		l.AttemptNumber,
		l.Outcome,
		l.DurationSeconds,
		l.ProviderCallID,
		l.CallbackScheduled,
		l.AppointmentScheduled,
		l.CreatedAt,
	)
	return err
}
