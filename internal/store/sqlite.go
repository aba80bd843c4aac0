package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"pvbess-model/internal/logging"
)

//go:embed migrations
var migrationsDir embed.FS

// Pragmas are applied per connection through the DSN.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

var migrationVersion = regexp.MustCompile(`^(\d+)[-_]`)

// SQLiteStore persists runs in a SQLite file. Runs are stored as a JSON payload.
type SQLiteStore struct {
	logger logging.Logger
	read   *sql.DB
	write  *sql.DB
	ttl    time.Duration
	now    func() time.Time
}

// OpenSQLite opens (or creates) the database at file and applies pending migrations.
func OpenSQLite(ctx context.Context, file string, ttl time.Duration) (*SQLiteStore, error) {
	dsn := "file:" + file + "?" + pragmas

	read, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open run store (read): %w", err)
	}
	read.SetMaxOpenConns(8)
	read.SetConnMaxIdleTime(time.Minute)

	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("open run store (write): %w", err)
	}
	// single writer
	write.SetMaxOpenConns(1)
	write.SetConnMaxIdleTime(time.Minute)

	s := &SQLiteStore{
		logger: logging.New("store"),
		read:   read,
		write:  write,
		ttl:    ttl,
		now:    time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("run store migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) SetLogger(l logging.Logger) {
	s.logger = l
}

func (s *SQLiteStore) Close() error {
	rerr := s.read.Close()
	werr := s.write.Close()
	return errors.Join(rerr, werr)
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var current int
	if err := s.write.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	entries, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)

	for _, name := range files {
		m := migrationVersion.FindStringSubmatch(name)
		if len(m) < 2 {
			return fmt.Errorf("parse version from migration file: %s", name)
		}
		next, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("migration version in %s: %w", name, err)
		}
		if next <= current {
			continue
		}
		s.logger.Debugf("applying migration %d", next)

		body, err := migrationsDir.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", name, err)
		}
		if err := s.applyMigration(ctx, next, string(body)); err != nil {
			return err
		}
		current = next
	}
	return nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, version int, body string) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction for migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update version for migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *SQLiteStore) Version(ctx context.Context) (int, error) {
	var v int
	err := s.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (s *SQLiteStore) Save(ctx context.Context, run *Run) (string, error) {
	now := s.now()
	prepare(run, now)

	payload, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	var expires any
	if s.ttl > 0 {
		expires = now.Add(s.ttl).UnixMilli()
	}
	_, err = s.write.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, expires_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			expires_at = excluded.expires_at,
			payload = excluded.payload`,
		run.ID, run.Name, run.CreatedAt.UnixMilli(), expires, payload)
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	var payload []byte
	err := s.read.QueryRowContext(ctx, `
		SELECT payload FROM runs
		WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		id, s.now().UnixMilli()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.write.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge removes expired runs and returns the number of rows deleted.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.write.ExecContext(ctx,
		"DELETE FROM runs WHERE expires_at IS NOT NULL AND expires_at <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Warnf("can't get rows affected by purge: %v", err)
		return 0, nil
	}
	s.logger.Debugf("purged %d expired runs", n)
	return n, nil
}
