package xarchive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // 纯 Go sqlite 驱动

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/util/xfile"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS eveapi_archive (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	call_key    TEXT NOT NULL,
	key_id      TEXT NOT NULL,
	scope       TEXT NOT NULL,
	method      TEXT NOT NULL,
	params      TEXT NOT NULL,
	body        BLOB NOT NULL,
	archived_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS eveapi_archive_call_key ON eveapi_archive (call_key, id)`

// SQLite 写入单表的归档。
type SQLite struct {
	db    *sql.DB
	owned bool
	now   func() time.Time
}

// OpenSQLite 打开（必要时创建）path 处的数据库并建表。
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	if path == "" {
		return nil, xfile.ErrEmptyPath
	}
	if err := xfile.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("xarchive: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("xarchive: open sqlite: %w", err)
	}
	s, err := NewSQLite(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite 使用已有连接并建表，连接的生命周期由调用方管理。
func NewSQLite(db *sql.DB, opts ...Option) (*SQLite, error) {
	if db == nil {
		return nil, ErrNilClient
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("xarchive: create archive table: %w", err)
	}
	o := applyOptions(opts)
	return &SQLite{db: db, now: o.Now}, nil
}

// Save 插入一条记录。
func (s *SQLite) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	rec := NewRecord(id, raw, s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO eveapi_archive (call_key, key_id, scope, method, params, body, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.KeyID, rec.Scope, rec.Method, rec.Params.Encode(), rec.Body, rec.ArchivedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("xarchive: insert: %w", err)
	}
	return nil
}

// Latest 返回 id 最近一次归档的记录，不存在时返回 ErrNotFound。
func (s *SQLite) Latest(ctx context.Context, id xapi.Identity) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT call_key, key_id, scope, method, params, body, archived_at
		 FROM eveapi_archive WHERE call_key = ? ORDER BY id DESC LIMIT 1`, id.Key())

	var (
		rec    Record
		params string
		millis int64
	)
	if err := row.Scan(&rec.Key, &rec.KeyID, &rec.Scope, &rec.Method, &params, &rec.Body, &millis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("xarchive: select: %w", err)
	}
	values, err := url.ParseQuery(params)
	if err != nil {
		return Record{}, fmt.Errorf("xarchive: decode params: %w", err)
	}
	rec.Params = xapi.ParamsFromValues(values)
	rec.ArchivedAt = time.UnixMilli(millis).UTC()
	return rec, nil
}

// Count 返回归档记录总数。
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM eveapi_archive`).Scan(&n); err != nil {
		return 0, fmt.Errorf("xarchive: count: %w", err)
	}
	return n, nil
}

// Close 关闭由 OpenSQLite 打开的连接。
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

var _ xapi.ArchiveStore = (*SQLite)(nil)
