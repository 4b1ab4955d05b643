package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `CREATE TABLE IF NOT EXISTS stylesheets (
	url        TEXT PRIMARY KEY,
	status     INTEGER NOT NULL,
	body       BLOB,
	fetched_at INTEGER NOT NULL
)`

// Cached keeps successful responses of another fetcher in SQLite database.
type Cached struct {
	next Fetcher
	ttl  time.Duration
	log  *zap.Logger

	mu   sync.Mutex
	conn *sqlite.Conn
	now  func() time.Time
}

// NewCached opens (creating when necessary) cache database at path.
// Entries older than ttl are refreshed, zero ttl keeps entries forever.
func NewCached(next Fetcher, path string, ttl time.Duration, log *zap.Logger) (*Cached, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create cache directory: %w", err)
		}
	}
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache %s: %w", path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare cache %s: %w", path, err)
	}
	return &Cached{
		next: next,
		ttl:  ttl,
		log:  log.Named("fetch-cache"),
		conn: conn,
		now:  time.Now,
	}, nil
}

// Close closes cache database.
func (c *Cached) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Cached) Get(ctx context.Context, url string) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetInterrupt(ctx.Done())
	defer c.conn.SetInterrupt(nil)

	if resp, ok, err := c.lookup(url); err != nil {
		c.log.Warn("Cache lookup failed", zap.String("url", url), zap.Error(err))
	} else if ok {
		c.log.Debug("Cache hit", zap.String("url", url))
		return resp, nil
	}

	resp, err := c.next.Get(ctx, url)
	if err != nil || !resp.OK() {
		return resp, err
	}
	if err := c.store(url, resp); err != nil {
		c.log.Warn("Unable to cache response", zap.String("url", url), zap.Error(err))
	}
	return resp, nil
}

func (c *Cached) lookup(url string) (Response, bool, error) {
	var (
		resp  Response
		found bool
	)
	err := sqlitex.Execute(c.conn, `SELECT status, body, fetched_at FROM stylesheets WHERE url = ?`,
		&sqlitex.ExecOptions{
			Args: []any{url},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				fetched := time.Unix(stmt.ColumnInt64(2), 0)
				if c.ttl > 0 && c.now().Sub(fetched) > c.ttl {
					return nil
				}
				body, err := io.ReadAll(stmt.ColumnReader(1))
				if err != nil {
					return err
				}
				resp = Response{StatusCode: stmt.ColumnInt(0), Body: body}
				found = true
				return nil
			},
		})
	return resp, found, err
}

func (c *Cached) store(url string, resp Response) error {
	return sqlitex.Execute(c.conn,
		`INSERT OR REPLACE INTO stylesheets (url, status, body, fetched_at) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{url, resp.StatusCode, resp.Body, c.now().Unix()}})
}
