package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// PendingKey tags rows written by the pending store.
const PendingKey = "pendingFormSubmissions"

// PendingSubmission is one stored submission awaiting delivery.
type PendingSubmission struct {
	ID        string          `json:"id"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Submission decodes the stored payload.
func (p PendingSubmission) Submission() (Submission, error) {
	return ParseSubmission(p.ID, p.Payload)
}

// PendingStore keeps submissions that could not be delivered in a SQLite
// table so they are not lost. It is the last link of the default chain.
type PendingStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPendingStore opens (or creates) the SQLite database at path, ensures
// the data directory exists, and creates the table.
func OpenPendingStore(path string) (*PendingStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL with a busy timeout lets the CLI flush while the server appends.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(2)
	s := &PendingStore{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *PendingStore) Close() error {
	return s.db.Close()
}

func (s *PendingStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pending_submissions (
    id TEXT PRIMARY KEY,
    storage_key TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS pending_submissions_key ON pending_submissions (storage_key, created_at);
`)
	return err
}

func (s *PendingStore) Name() string { return "pending" }

// Submit stores sub. It implements Submitter so the store can terminate a
// Chain; storing counts as delivery.
func (s *PendingStore) Submit(ctx context.Context, sub Submission) error {
	return s.Append(ctx, sub)
}

// Append stores sub under PendingKey. The write is not tied to ctx's
// cancellation so a submission that timed out upstream is still kept.
func (s *PendingStore) Append(ctx context.Context, sub Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(context.WithoutCancel(ctx),
		`INSERT OR REPLACE INTO pending_submissions (id, storage_key, payload, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, PendingKey, string(payload), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("contact: store pending submission: %w", err)
	}
	return nil
}

// List returns stored submissions, oldest first.
func (s *PendingStore) List(ctx context.Context) ([]PendingSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, storage_key, payload, created_at FROM pending_submissions WHERE storage_key = ? ORDER BY created_at, rowid`,
		PendingKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingSubmission
	for rows.Next() {
		var id, key, payload, created string
		if err := rows.Scan(&id, &key, &payload, &created); err != nil {
			return nil, err
		}
		t, _ := time.Parse(time.RFC3339Nano, created)
		out = append(out, PendingSubmission{
			ID:        id,
			Key:       key,
			Payload:   json.RawMessage(payload),
			CreatedAt: t,
		})
	}
	return out, rows.Err()
}

// Count returns the number of stored submissions.
func (s *PendingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_submissions WHERE storage_key = ?`, PendingKey).Scan(&n)
	return n, err
}

// Delete removes a stored submission. Deleting a missing id is not an error.
func (s *PendingStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_submissions WHERE id = ?`, id)
	return err
}

// Flush replays stored submissions through sender, oldest first, and
// deletes each one sender accepts. sender must not write back to this
// store. It returns the number delivered and the joined failures.
func (s *PendingStore) Flush(ctx context.Context, sender Submitter) (int, error) {
	pending, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	var (
		delivered int
		errs      []error
	)
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sub, err := p.Submission()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sender.Submit(ctx, sub); err != nil {
			errs = append(errs, fmt.Errorf("contact: flush %s: %w", p.ID, err))
			continue
		}
		if err := s.Delete(ctx, p.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}
