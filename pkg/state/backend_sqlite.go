package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteConfig configures a SQLiteBackend.
type SQLiteConfig struct {
	// Path is the database file. It is created when missing. ":memory:"
	// requires PoolSize 1 since each in-memory connection is independent.
	Path string
	// PoolSize defaults to 4.
	PoolSize int
	// Table defaults to "kv".
	Table  string
	Logger *slog.Logger
	// Now stamps updated_at; defaults to time.Now.
	Now func() time.Time
}

// SQLiteBackend is a durable Backend stored in a single SQLite table.
type SQLiteBackend struct {
	pool   *sqlitex.Pool
	table  string
	logger *slog.Logger
	now    func() time.Time
	path   string
}

// OpenSQLite opens (and if needed creates) the backing database.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("state: sqlite path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	table := cfg.Table
	if table == "" {
		table = "kv"
	}
	if !validIdentifier(table) {
		return nil, fmt.Errorf("state: invalid sqlite table name %q", table)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareSQLiteConn(conn, table)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite %s: %w", cfg.Path, err)
	}
	logger.Info("sqlite backend opened", "path", cfg.Path, "pool_size", poolSize, "table", table)
	return &SQLiteBackend{pool: pool, table: table, logger: logger, now: now, path: cfg.Path}, nil
}

func prepareSQLiteConn(conn *sqlite.Conn, table string) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("state: %s: %w", pragma, err)
		}
	}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      BLOB,
	updated_at INTEGER NOT NULL
);`, table)
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("state: create table %s: %w", table, err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	conn, err := b.take(ctx)
	if err != nil {
		return nil, false, err
	}
	defer b.pool.Put(conn)

	var (
		value []byte
		found bool
	)
	err = sqlitex.Execute(conn, fmt.Sprintf("SELECT value FROM %s WHERE key = ?", b.table), &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			if stmt.ColumnIsNull(0) {
				value = []byte{}
				return nil
			}
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("state: sqlite get %q: %w", key, err)
	}
	return value, found, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, key string, value []byte) (err error) {
	conn, err := b.take(ctx)
	if err != nil {
		return err
	}
	defer b.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("state: sqlite begin: %w", err)
	}
	defer endTransaction(&err)

	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, b.table)
	if err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{key, value, b.now().UnixMilli()},
	}); err != nil {
		return fmt.Errorf("state: sqlite set %q: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	conn, err := b.take(ctx)
	if err != nil {
		return err
	}
	defer b.pool.Put(conn)

	if err := sqlitex.Execute(conn, fmt.Sprintf("DELETE FROM %s WHERE key = ?", b.table), &sqlitex.ExecOptions{
		Args: []any{key},
	}); err != nil {
		return fmt.Errorf("state: sqlite delete %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (b *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	conn, err := b.take(ctx)
	if err != nil {
		return nil, err
	}
	defer b.pool.Put(conn)

	var keys []string
	err = sqlitex.Execute(conn, fmt.Sprintf("SELECT key FROM %s ORDER BY key", b.table), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("state: sqlite keys: %w", err)
	}
	return keys, nil
}

// Close releases every pooled connection.
func (b *SQLiteBackend) Close() error {
	if err := b.pool.Close(); err != nil {
		b.logger.Error("sqlite backend close error", "path", b.path, "error", err)
		return fmt.Errorf("state: close sqlite %s: %w", b.path, err)
	}
	b.logger.Info("sqlite backend closed", "path", b.path)
	return nil
}

func (b *SQLiteBackend) take(ctx context.Context) (*sqlite.Conn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := b.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("state: sqlite take: %w", err)
	}
	return conn, nil
}

func validIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}
