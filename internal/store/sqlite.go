package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/mth101/cbt/internal/grading"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	tableResults  = "stage_results"
	tableAttempts = "attempts"
	tableProfiles = "profiles"
)

// resultColumns are shared by the results and attempts tables, in scan order.
var resultColumns = []string{
	"attempt_id", "stage", "correct", "wrong", "total",
	"percentage", "passed", "topics", "graded_at",
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at dsn, applies pragmas and creates the
// tables if needed.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &SQLiteStore{db: db, b: entsql.Dialect(dialect.SQLite)}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// schema is applied on every open. ent's dialect builder only covers DML,
// so the tables are declared as plain DDL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + tableResults + ` (
		identity   TEXT    NOT NULL,
		attempt_id TEXT    NOT NULL,
		stage      INTEGER NOT NULL,
		correct    INTEGER NOT NULL,
		wrong      INTEGER NOT NULL,
		total      INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		passed     INTEGER NOT NULL,
		topics     TEXT    NOT NULL,
		graded_at  TEXT    NOT NULL,
		PRIMARY KEY (identity, stage)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableAttempts + ` (
		identity   TEXT    NOT NULL,
		attempt_id TEXT    NOT NULL PRIMARY KEY,
		stage      INTEGER NOT NULL,
		correct    INTEGER NOT NULL,
		wrong      INTEGER NOT NULL,
		total      INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		passed     INTEGER NOT NULL,
		topics     TEXT    NOT NULL,
		graded_at  TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_identity_graded_at ON ` + tableAttempts + ` (identity, graded_at)`,
	`CREATE TABLE IF NOT EXISTS ` + tableProfiles + ` (
		name       TEXT NOT NULL PRIMARY KEY,
		department TEXT NOT NULL,
		last_seen  TEXT NOT NULL
	)`,
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// resultValues flattens r into column order, prefixed by identity.
func resultValues(identity string, r grading.Result) ([]any, error) {
	topics, err := json.Marshal(r.Topics)
	if err != nil {
		return nil, fmt.Errorf("marshal topics: %w", err)
	}
	passed := 0
	if r.Passed {
		passed = 1
	}
	return []any{
		identity, r.AttemptID, r.Stage, r.Correct, r.Wrong, r.Total,
		r.Percentage, passed, string(topics), formatTime(r.Timestamp),
	}, nil
}

func (s *SQLiteStore) insertResult(ctx context.Context, table, identity string, r grading.Result, conflict ...string) error {
	values, err := resultValues(identity, r)
	if err != nil {
		return err
	}
	ins := s.b.Insert(table).
		Columns(append([]string{"identity"}, resultColumns...)...).
		Values(values...)
	if len(conflict) > 0 {
		ins = ins.OnConflict(
			entsql.ConflictColumns(conflict...),
			entsql.ResolveWithNewValues(),
		)
	}
	query, args := ins.Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// PutResult upserts the stage slot for identity.
func (s *SQLiteStore) PutResult(ctx context.Context, identity string, r grading.Result) error {
	if err := s.insertResult(ctx, tableResults, identity, r, "identity", "stage"); err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, identity string, stage int) (*grading.Result, error) {
	query, args := s.b.Select(resultColumns...).
		From(s.b.Table(tableResults)).
		Where(entsql.And(
			entsql.EQ("identity", identity),
			entsql.EQ("stage", stage),
		)).
		Query()

	rs, err := s.scanResults(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (s *SQLiteStore) DeleteResults(ctx context.Context, identity string) error {
	for _, table := range []string{tableResults, tableAttempts} {
		query, args := s.b.Delete(table).Where(entsql.EQ("identity", identity)).Query()
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// AppendAttempt records r. Appending the same attempt again replaces the
// earlier row, so a retried save never trips the primary key.
func (s *SQLiteStore) AppendAttempt(ctx context.Context, identity string, r grading.Result) error {
	if err := s.insertResult(ctx, tableAttempts, identity, r, "attempt_id"); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Attempts(ctx context.Context, identity string, limit int) ([]grading.Result, error) {
	sel := s.b.Select(resultColumns...).
		From(s.b.Table(tableAttempts)).
		Where(entsql.EQ("identity", identity)).
		OrderBy(entsql.Desc("graded_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rs, err := s.scanResults(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	return rs, nil
}

func (s *SQLiteStore) scanResults(ctx context.Context, query string, args []any) ([]grading.Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []grading.Result
	for rows.Next() {
		var (
			r        grading.Result
			passed   int
			topics   string
			gradedAt string
		)
		if err := rows.Scan(&r.AttemptID, &r.Stage, &r.Correct, &r.Wrong, &r.Total,
			&r.Percentage, &passed, &topics, &gradedAt); err != nil {
			return nil, err
		}
		r.Passed = passed != 0
		if err := json.Unmarshal([]byte(topics), &r.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
		if r.Timestamp, err = parseTime(gradedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, p Profile) error {
	if p.LastSeen.IsZero() {
		p.LastSeen = time.Now()
	}
	query, args := s.b.Insert(tableProfiles).
		Columns("name", "department", "last_seen").
		Values(p.Name, p.Department, formatTime(p.LastSeen)).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LastProfile(ctx context.Context) (*Profile, error) {
	ps, err := s.queryProfiles(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	return s.queryProfiles(ctx, 0)
}

func (s *SQLiteStore) queryProfiles(ctx context.Context, limit int) ([]Profile, error) {
	sel := s.b.Select("name", "department", "last_seen").
		From(s.b.Table(tableProfiles)).
		OrderBy(entsql.Desc("last_seen"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var (
			p        Profile
			lastSeen string
		)
		if err := rows.Scan(&p.Name, &p.Department, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if p.LastSeen, err = parseTime(lastSeen); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	return out, nil
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
