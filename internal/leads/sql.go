package leads

import (
	"context"
	"database/sql"
	"errors"
)

// SQLDirectory reads the CRM-owned leads and lead_phone_numbers tables.
// Assumed schema:
// - leads (id, first_name, last_name, vehicle_interest, do_not_call)
// - lead_phone_numbers (lead_id, number, type, is_primary)
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory { return &SQLDirectory{db: db} }

func (d *SQLDirectory) Lead(ctx context.Context, leadID string) (Lead, error) {
	const q = `
SELECT id, first_name, last_name, vehicle_interest, do_not_call
FROM leads
WHERE id = $1
`
	var l Lead
	if err := d.db.QueryRowContext(ctx, q, leadID).Scan(
		&l.ID,
		&l.FirstName,
		&l.LastName,
		&l.VehicleInterest,
		&l.DoNotCall,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return l, nil
}

func (d *SQLDirectory) PhoneNumbers(ctx context.Context, leadID string) ([]PhoneNumber, error) {
	const q = `
SELECT number, type, is_primary
FROM lead_phone_numbers
WHERE lead_id = $1
ORDER BY is_primary DESC, number ASC
`
	rows, err := d.db.QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PhoneNumber, 0)
	for rows.Next() {
		var p PhoneNumber
		if err := rows.Scan(&p.Number, &p.Type, &p.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
