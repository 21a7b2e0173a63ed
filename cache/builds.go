// Package cache remembers compiled sources in SQLite database so unchanged
// sources could be skipped on the next run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	source   TEXT PRIMARY KEY,
	digest   TEXT NOT NULL,
	output   TEXT NOT NULL,
	compiled INTEGER NOT NULL
);`

// Builds is a table of source name -> digest of what was compiled and where
// the result went. Nil *Builds is valid and remembers nothing.
// NOTE: not to be used concurrently.
type Builds struct {
	conn *sqlite.Conn
	log  *zap.Logger
}

// Open opens or creates database at path.
func Open(path string, log *zap.Logger) (*Builds, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("unable to open build cache (%s): %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare build cache (%s): %w", path, err)
	}
	log = log.Named("cache")
	log.Debug("Build cache opened", zap.String("path", path))
	return &Builds{conn: conn, log: log}, nil
}

// Close closes database.
func (b *Builds) Close() error {
	if b == nil {
		return nil
	}
	return b.conn.Close()
}

// Fresh reports whether source was compiled from exactly the same input
// into the same output and that output is still in place.
func (b *Builds) Fresh(source, digest, output string) bool {
	if b == nil {
		return false
	}

	var stored, storedOutput string
	err := sqlitex.Execute(b.conn, `SELECT digest, output FROM builds WHERE source = ?`,
		&sqlitex.ExecOptions{
			Args: []any{source},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stored, storedOutput = stmt.ColumnText(0), stmt.ColumnText(1)
				return nil
			}})
	if err != nil {
		b.log.Warn("Unable to query build cache", zap.String("source", source), zap.Error(err))
		return false
	}
	if stored != digest || storedOutput != output {
		return false
	}
	if _, err := os.Stat(output); err != nil {
		return false
	}
	return true
}

// Remember records successful compilation.
func (b *Builds) Remember(source, digest, output string) error {
	if b == nil {
		return nil
	}
	return sqlitex.Execute(b.conn,
		`INSERT INTO builds (source, digest, output, compiled) VALUES (?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET digest = excluded.digest, output = excluded.output, compiled = excluded.compiled`,
		&sqlitex.ExecOptions{Args: []any{source, digest, output, time.Now().Unix()}})
}

// Forget drops source record, so it is compiled next time.
func (b *Builds) Forget(source string) error {
	if b == nil {
		return nil
	}
	return sqlitex.Execute(b.conn, `DELETE FROM builds WHERE source = ?`, &sqlitex.ExecOptions{Args: []any{source}})
}

// Sources lists remembered sources in natural order.
func (b *Builds) Sources() ([]string, error) {
	if b == nil {
		return nil, nil
	}
	var out []string
	err := sqlitex.Execute(b.conn, `SELECT source FROM builds`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, stmt.ColumnText(0))
			return nil
		}})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return out, nil
}

// Digest identifies compilation input: source text and variables it was
// compiled with.
func Digest(text string, defines map[string]string) string {
	h := sha256.New()
	h.Write([]byte(text))
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%s", name, defines[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}
