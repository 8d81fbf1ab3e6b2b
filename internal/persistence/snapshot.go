// Package persistence exports the final account snapshot to Postgres. This
// is result export for reporting, not engine state: a new run always starts
// from an empty ledger.
package persistence

import (
	"PayLedger/internal/ledger"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS account_snapshots (
	run_id     UUID        NOT NULL,
	client     INTEGER     NOT NULL,
	available  NUMERIC     NOT NULL,
	held       NUMERIC     NOT NULL,
	total      NUMERIC     NOT NULL,
	locked     BOOLEAN     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, client)
)`

// SnapshotWriter writes one row per client account at the end of a run,
// tagged with the run id so successive runs stay distinguishable.
type SnapshotWriter struct {
	db *sql.DB
}

func NewSnapshotWriter(db *sql.DB) *SnapshotWriter {
	return &SnapshotWriter{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (w *SnapshotWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("create account_snapshots: %w", err)
	}
	return nil
}

// WriteSnapshot inserts all rows in a single transaction using a multi-row
// INSERT. Either the whole snapshot lands or none of it does.
func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, runID uuid.UUID, accounts []ledger.Summary) error {
	if len(accounts) == 0 {
		return nil
	}

	createdAt := time.Now().UTC()

	var sb strings.Builder
	sb.WriteString("INSERT INTO account_snapshots (run_id, client, available, held, total, locked, created_at) VALUES ")

	args := make([]interface{}, 0, len(accounts)*7)
	for i, acct := range accounts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		args = append(args,
			runID,
			int64(acct.Client),
			acct.Available.String(),
			acct.Held.String(),
			acct.Total.String(),
			acct.Locked,
			createdAt,
		)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert snapshot rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
