package turso

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tursodatabase/go-libsql"
)

// DB wraps a libsql connection. Embedded replicas also hold the connector used
// to sync with the remote primary.
type DB struct {
	*sql.DB
	connector *libsql.Connector
}

// OpenLocal opens (or creates) a local database file.
func OpenLocal(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return finishOpen(db, nil)
}

// OpenReplica opens an embedded replica of a remote Turso database stored at path.
// The replica is synced once before returning.
func OpenReplica(path, url, authToken string) (*DB, error) {
	if url == "" || authToken == "" {
		return nil, fmt.Errorf("database url and auth token are required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connector, err := libsql.NewEmbeddedReplicaConnector(path, url, libsql.WithAuthToken(authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create replica connector: %w", err)
	}
	if _, err := connector.Sync(); err != nil {
		_ = connector.Close()
		return nil, fmt.Errorf("failed to sync replica: %w", err)
	}
	return finishOpen(sql.OpenDB(connector), connector)
}

// OpenMemory opens a private in-memory database.
func OpenMemory() (*DB, error) {
	db, err := sql.Open("libsql", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return finishOpen(db, nil)
}

func finishOpen(db *sql.DB, connector *libsql.Connector) (*DB, error) {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		if connector != nil {
			_ = connector.Close()
		}
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{DB: db, connector: connector}, nil
}

// Remote reports whether the database syncs with a remote primary.
func (d *DB) Remote() bool {
	return d.connector != nil
}

// Sync pulls remote changes into an embedded replica. It is a no-op for local databases.
func (d *DB) Sync() error {
	if d.connector == nil {
		return nil
	}
	if _, err := d.connector.Sync(); err != nil {
		return fmt.Errorf("failed to sync replica: %w", err)
	}
	return nil
}

// Close closes the connection pool and the replica connector.
func (d *DB) Close() error {
	err := d.DB.Close()
	if d.connector != nil {
		if cerr := d.connector.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
