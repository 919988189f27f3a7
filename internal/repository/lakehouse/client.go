package lakehouse

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	errwrap "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/helper"
)

const DefaultCacheTTL = 60 * time.Second

// LakehouseClient runs read-only SQL against named workspaces.
type LakehouseClient interface {
	// Query executes sql on the workspace. Results are cached for ttl under
	// the exact workspace and query text; ttl <= 0 skips the cache.
	Query(ctx context.Context, workspace, query string, ttl time.Duration) (*entity.QueryResult, error)
	ListVirtualClusters(ctx context.Context, workspace string) ([]string, error)
	ListUsers(ctx context.Context, workspace string) ([]string, error)
	Workspaces() []string
	Close() error
}

// Opener opens a database handle. sql.Open is used by default.
type Opener func(driverName, dsn string) (*sql.DB, error)

type Option func(*clientImpl)

func WithOpener(open Opener) Option {
	return func(c *clientImpl) { c.open = open }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *clientImpl) { c.log = log }
}

type clientImpl struct {
	workspaces map[string]entity.Workspace
	open       Opener
	log        *zap.Logger
	cache      *cache.Cache

	mu    sync.Mutex
	conns map[string]*sql.DB
}

func NewClient(workspaces []entity.Workspace, cacheTTL time.Duration, opts ...Option) LakehouseClient {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	c := &clientImpl{
		workspaces: make(map[string]entity.Workspace, len(workspaces)),
		open:       sql.Open,
		log:        zap.NewNop(),
		cache:      cache.New(cacheTTL, 2*cacheTTL),
		conns:      make(map[string]*sql.DB),
	}
	for _, ws := range workspaces {
		c.workspaces[ws.Name] = ws
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *clientImpl) Workspaces() []string {
	names := make([]string, 0, len(c.workspaces))
	for name := range c.workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getConnection opens and pings the workspace handle on first use.
func (c *clientImpl) getConnection(ctx context.Context, workspace string) (*sql.DB, error) {
	funcName := "LakehouseClient.getConnection"

	ws, ok := c.workspaces[workspace]
	if !ok {
		return nil, connectionError(funcName, workspace, errwrap.New("workspace is not configured"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if db, ok := c.conns[workspace]; ok {
		return db, nil
	}

	db, err := c.open(ws.Driver, ws.DSN)
	if err != nil {
		return nil, connectionError(funcName, workspace, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connectionError(funcName, workspace, err)
	}

	c.conns[workspace] = db
	c.log.Info("workspace connected", zap.String("workspace", workspace), zap.String("driver", ws.Driver))
	return db, nil
}

func (c *clientImpl) Query(ctx context.Context, workspace, query string, ttl time.Duration) (*entity.QueryResult, error) {
	funcName := "LakehouseClient.Query"
	if err := helper.CheckDeadline(ctx); err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}

	key := workspace + "\x00" + query
	if ttl > 0 {
		if cached, found := c.cache.Get(key); found {
			if res, ok := cached.(*entity.QueryResult); ok {
				return res, nil
			}
		}
	}

	db, err := c.getConnection(ctx, workspace)
	if err != nil {
		return nil, err
	}

	res, err := executeQuery(ctx, db, query)
	if err != nil {
		return nil, queryError(funcName, workspace, err)
	}

	if ttl > 0 {
		c.cache.Set(key, res, ttl)
	}
	return res, nil
}

func executeQuery(ctx context.Context, db *sql.DB, query string) (*entity.QueryResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &entity.QueryResult{
		Columns: make([]entity.Column, len(names)),
		Rows:    []map[string]interface{}{},
	}
	for i, name := range names {
		res.Columns[i] = entity.Column{Name: name, Type: entity.ColumnTypeUnknown}
	}

	values := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(names))
		for i, name := range names {
			v := normalizeValue(values[i])
			row[name] = v
			if res.Columns[i].Type == entity.ColumnTypeUnknown {
				res.Columns[i].Type = columnTypeOf(v)
			}
		}
		res.Rows = append(res.Rows, row)
	}

	return res, rows.Err()
}

func (c *clientImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, db := range c.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = errwrap.Wrapf(err, "LakehouseClient.Close: %s", name)
		}
		delete(c.conns, name)
	}
	c.cache.Flush()
	return firstErr
}
