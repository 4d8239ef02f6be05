package ledger

import (
	"context"
	"fmt"
)

// Append inserts an audit record. The record's ID is computed here if the
// caller left it empty; the label is NFC-normalized before storage.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: replaying a run rewrites
// the same content-addressed IDs and the duplicates are silently ignored.
func (l *Ledger) Append(ctx context.Context, r Record) (Record, error) {
	r.Label = NormalizeLabel(r.Label)
	if r.ID == "" {
		r.ID = RecordID(r)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audits (id, run_token, label, kind, seq, residue, digest, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.RunToken,
		r.Label,
		string(r.Kind),
		r.Seq,
		int(r.Residue),
		r.Digest,
		r.Status,
	)
	if err != nil {
		return Record{}, fmt.Errorf("append audit: %w", err)
	}

	return r, nil
}
