// Package sqlite stores execution history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB owns the SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path and applies pending
// migrations. When an existing file has pending migrations it is copied to
// path+".bak" first.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(wal)" +
		"&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(existed); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info(log.CatDB, "history database ready", "path", path)
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// HistoryRepository returns a history.Repository backed by this database.
func (db *DB) HistoryRepository() history.Repository {
	return newHistoryRepository(db)
}

// SchemaVersion returns the last applied migration version.
func (db *DB) SchemaVersion() (uint, error) {
	var v uint
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

type migration struct {
	version uint
	name    string
	sql     string
}

func pendingMigrations(src source.Driver, current uint) ([]migration, error) {
	var out []migration

	v, err := src.First()
	for err == nil {
		if v > current {
			r, name, rerr := src.ReadUp(v)
			if rerr != nil {
				return nil, fmt.Errorf("reading migration %d: %w", v, rerr)
			}
			body, rerr := io.ReadAll(r)
			_ = r.Close()
			if rerr != nil {
				return nil, fmt.Errorf("reading migration %d: %w", v, rerr)
			}
			out = append(out, migration{version: v, name: name, sql: string(body)})
		}
		v, err = src.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	return out, nil
}

func (db *DB) migrate(existed bool) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(src, current)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if existed {
		if err := db.backup(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	for _, m := range pending {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
		log.Debug(log.CatDB, "applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

// backup copies the database into path+".bak" using VACUUM INTO, which is
// consistent under WAL.
func (db *DB) backup() error {
	bak := db.path + ".bak"
	if err := os.Remove(bak); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing old backup: %w", err)
	}
	if _, err := db.conn.Exec("VACUUM INTO ?", bak); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	log.Info(log.CatDB, "database backed up before migration", "backup", bak)
	return nil
}
