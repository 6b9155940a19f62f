package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
)

type ConnectionProvider interface {
	GetConnection() *pg.DB
	Ping(ctx context.Context) error
	Close() error
}

type connectionProviderImpl struct {
	options *pg.Options
	mutex   sync.Mutex
	db      *pg.DB
}

func NewConnectionProvider(cfg config.DatabaseConfig) (ConnectionProvider, error) {
	options, err := pg.ParseURL(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	options.Password = cfg.Password
	options.PoolSize = cfg.PoolSize
	options.MaxRetries = 5
	options.ApplicationName = "marketplace-cleanup"
	return &connectionProviderImpl{options: options}, nil
}

// GetConnection returns the shared pool, creating it on first use. Safe for concurrent use.
func (c *connectionProviderImpl) GetConnection() *pg.DB {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.db == nil {
		c.db = pg.Connect(c.options)
		c.db.AddQueryHook(dbLogger{})
	}
	return c.db
}

func (c *connectionProviderImpl) Ping(ctx context.Context) error {
	return c.GetConnection().Ping(ctx)
}

func (c *connectionProviderImpl) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

type dbLogger struct{}

func (d dbLogger) BeforeQuery(ctx context.Context, q *pg.QueryEvent) (context.Context, error) {
	return ctx, nil
}

func (d dbLogger) AfterQuery(ctx context.Context, q *pg.QueryEvent) error {
	if !log.IsLevelEnabled(log.TraceLevel) {
		return nil
	}
	query, err := q.FormattedQuery()
	if err != nil {
		return nil
	}
	log.Tracef("DB query: %s", string(query))
	return nil
}
