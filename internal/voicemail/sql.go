package voicemail

import (
	"context"
	"database/sql"
	"errors"
)

// SQLRepo reads the voicemail_templates table.
// Assumed schema:
//
//	voicemail_templates (
//	  id UUID PRIMARY KEY,
//	  script_content TEXT NOT NULL,
//	  attempt_number INT NOT NULL,
//	  is_default BOOLEAN NOT NULL DEFAULT false,
//	  is_active BOOLEAN NOT NULL DEFAULT true,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	)
//
// A partial unique index on (attempt_number) WHERE is_default AND is_active
// enforces the one-default-per-attempt invariant.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) DefaultForAttempt(ctx context.Context, attempt int) (Template, bool, error) {
	const q = `
SELECT id, script_content, attempt_number, is_default, is_active, created_at, updated_at
FROM voicemail_templates
WHERE attempt_number = $1 AND is_default AND is_active
LIMIT 1
`
	var t Template
	err := r.db.QueryRowContext(ctx, q, attempt).Scan(
		&t.ID,
		&t.ScriptContent,
		&t.AttemptNumber,
		&t.IsDefault,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, false, nil
		}
		return Template{}, false, err
	}
	return t, true, nil
}
