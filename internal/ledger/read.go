package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadRun returns all audit records for a run token.
// Ordering is deterministic: ORDER BY seq ASC, id ASC COLLATE BINARY, so
// repeated reads (and reads after replay) return identical sequences.
//
// Returns an empty slice (not nil) if no records exist for the token.
func (l *Ledger) ReadRun(ctx context.Context, runToken string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_token, label, kind, seq, residue, digest, status
		FROM audits
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ReadAll returns every audit record in the ledger in deterministic order.
// Used by the trace CLI command to dump a ledger.
func (l *Ledger) ReadAll(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_token, label, kind, seq, residue, digest, status
		FROM audits
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// LastSeq returns the highest seq recorded, or 0 for an empty ledger.
// Used to resume a logical clock when reopening a ledger.
func (l *Ledger) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := l.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM audits`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		var r Record
		var kind string
		var residue int
		if err := rows.Scan(&r.ID, &r.RunToken, &r.Label, &kind, &r.Seq, &residue, &r.Digest, &r.Status); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		r.Kind = Kind(kind)
		r.Residue = uint8(residue)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}
	return records, nil
}
