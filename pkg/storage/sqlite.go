package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial keyspace tables
const currentSchemaVersion = 1

// sqliteTable maps each keyspace to its backing table. The map is closed, so
// table names are never built from caller input.
var sqliteTable = map[Keyspace]string{
	KeyspaceNodes:     "nodes",
	KeyspaceRelations: "relations",
	KeyspaceAdjacency: "adjacency",
	KeyspaceTokens:    "tokens",
}

// SQLiteEngine is the relational engine, backed by a SQLite database file.
//
// WAL mode gives readers a stable snapshot while a writer commits, which is
// what the View/Update contract requires. Pragmas ride the DSN so that every
// pooled connection is configured identically.
type SQLiteEngine struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ Engine = (*SQLiteEngine)(nil)

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*SQLiteEngine, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: path required")
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The pool stays at its default size: WAL lets readers run while a
	// writer commits, and the busy timeout absorbs writer contention.

	if err := verifyPragma(db, "journal_mode", "wal"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteEngine{db: db}, nil
}

// sqliteDSN builds the connection string with per-connection pragmas.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

// View runs fn in a read-only transaction. The snapshot is taken at the
// transaction's first read and held until fn returns.
func (e *SQLiteEngine) View(ctx context.Context, fn func(Txn) error) error {
	return e.run(ctx, false, fn)
}

// Update runs fn in a read-write transaction and commits it when fn
// returns nil. Any error from fn rolls the transaction back.
func (e *SQLiteEngine) Update(ctx context.Context, fn func(Txn) error) error {
	return e.run(ctx, true, fn)
}

func (e *SQLiteEngine) run(ctx context.Context, update bool, fn func(Txn) error) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTxn{ctx: ctx, tx: tx, update: update}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection. Safe to call more than once.
func (e *SQLiteEngine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
func verifyPragma(db *sql.DB, name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// sqliteTxn adapts a database/sql transaction to the Txn interface.
type sqliteTxn struct {
	ctx    context.Context
	tx     *sql.Tx
	update bool
}

func (t *sqliteTxn) table(ks Keyspace) (string, error) {
	name, ok := sqliteTable[ks]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKeyspace, ks)
	}
	return name, nil
}

func (t *sqliteTxn) Get(ks Keyspace, key string) ([]byte, error) {
	table, err := t.table(ks)
	if err != nil {
		return nil, err
	}

	var value []byte
	query := fmt.Sprintf("SELECT v FROM %s WHERE k = ?", table)
	err = t.tx.QueryRowContext(t.ctx, query, []byte(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

func (t *sqliteTxn) Set(ks Keyspace, key string, value []byte) error {
	if !t.update {
		return ErrReadOnlyTxn
	}
	table, err := t.table(ks)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v",
		table,
	)
	if _, err := t.tx.ExecContext(t.ctx, query, []byte(key), value); err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

func (t *sqliteTxn) Delete(ks Keyspace, key string) (bool, error) {
	if !t.update {
		return false, ErrReadOnlyTxn
	}
	table, err := t.table(ks)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE k = ?", table)
	res, err := t.tx.ExecContext(t.ctx, query, []byte(key))
	if err != nil {
		return false, fmt.Errorf("sqlite delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite delete: %w", err)
	}
	return affected > 0, nil
}

func (t *sqliteTxn) Scan(ks Keyspace, prefix string, fn func(key string, value []byte) error) error {
	table, err := t.table(ks)
	if err != nil {
		return err
	}

	// Prefix filtering uses byte-range bounds instead of LIKE: keys may
	// contain LIKE wildcard bytes, and BLOB ranges compare with memcmp.
	query := fmt.Sprintf("SELECT k, v FROM %s", table)
	var args []any
	if prefix != "" {
		lower := []byte(prefix)
		if upper, ok := prefixUpperBound(lower); ok {
			query += " WHERE k >= ? AND k < ?"
			args = append(args, lower, upper)
		} else {
			query += " WHERE k >= ?"
			args = append(args, lower)
		}
	}
	query += " ORDER BY k ASC"

	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("sqlite scan row: %w", err)
		}
		if err := fn(string(k), v); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite scan rows: %w", err)
	}
	return nil
}

// prefixUpperBound returns the smallest byte string greater than every string
// with the given prefix. The second return is false when no such bound exists
// (the prefix is all 0xFF bytes).
func prefixUpperBound(prefix []byte) ([]byte, bool) {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1], true
		}
	}
	return nil, false
}
