package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"customsflow/internal/config"
	"customsflow/internal/customs"
	"customsflow/internal/events"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultRecentLimit      = 50
)

// Entry is one journaled event.
type Entry struct {
	ID            int64
	SessionID     string
	Seq           int64
	Kind          events.Kind
	DeclarationID string
	From          customs.Status
	To            customs.Status
	TransactionID string
	OccurredAt    time.Time
}

// Store persists journal entries in SQLite.
type Store struct {
	db        *sql.DB
	path      string
	sessionID string
}

// Open creates or connects to the journal under the configured state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal at an explicit location.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, sessionID: uuid.NewString()}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// SessionID identifies this process's entries; bus sequence numbers restart
// with each session.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append journals a lifecycle transition or audit completion. Other event
// kinds are ignored. Re-appending the same bus event is a no-op.
func (s *Store) Append(ctx context.Context, ev events.Event) error {
	switch ev.Kind {
	case events.KindLifecycleTransition, events.KindAuditCompleted:
	default:
		return nil
	}
	if strings.TrimSpace(ev.DeclarationID) == "" {
		return customs.Wrap(customs.ErrInvalidInput, "journal", "append", "event has no declaration id", nil)
	}
	occurred := ev.At
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO journal_entries (
            session_id, bus_seq, kind, declaration_id, from_status, to_status,
            transaction_id, occurred_at, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID,
		ev.Seq,
		string(ev.Kind),
		ev.DeclarationID,
		nullableString(string(ev.From)),
		nullableString(string(ev.To)),
		nullableString(ev.TransactionID),
		occurred.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// History returns every entry for a declaration, oldest first.
func (s *Store) History(ctx context.Context, declarationID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE declaration_id = ? ORDER BY id`,
		declarationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the newest entries across all declarations.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountByKind returns how many entries of each kind are journaled.
func (s *Store) CountByKind(ctx context.Context) (map[events.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM journal_entries GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()
	counts := make(map[events.Kind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[events.Kind(kind)] = count
	}
	return counts, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
