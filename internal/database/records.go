package database

import (
	"fmt"

	"github.com/spirekeep/idlespire/internal/records"
)

// LoadRecords returns every server record.
func (d *Database) LoadRecords() ([]records.Record, error) {
	rows, err := d.db.Query("SELECT kind, holder, value, detail FROM records")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		var r records.Record
		if err := rows.Scan(&r.Kind, &r.Holder, &r.Value, &r.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRecord upserts a single server record.
func (d *Database) SaveRecord(r records.Record) error {
	_, err := d.db.Exec(
		d.rebind(`INSERT INTO records (kind, holder, value, detail)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind) DO UPDATE SET
		 holder = excluded.holder, value = excluded.value, detail = excluded.detail`),
		string(r.Kind), r.Holder, r.Value, r.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}
