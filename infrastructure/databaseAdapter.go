package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultOpTimeout = 10 * time.Second

// MongoConfig is the connection configuration for the document store.
// Either a full URI or the host/user/password/db/port quadruple is
// accepted; the URI wins when both are set.
type MongoConfig struct {
	URI      string
	Host     string
	User     string
	Password string
	Database string
	Port     int
	Timeout  time.Duration
}

// ConnectionURI returns the explicit URI or builds one from the parts.
func (c *MongoConfig) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s",
		c.User, url.QueryEscape(c.Password), c.Host, c.Port, c.Database)
}

// DatabaseAdapter owns the single long-lived mongo client. It is
// created once at process start, injected into every repository, and
// released at shutdown. Every operation runs under an explicit timeout
// so a degraded store cannot block requests indefinitely.
type DatabaseAdapter struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *logrus.Logger
	timeout  time.Duration
}

// NewDatabaseAdapter connects, verifies the connection with a ping and
// returns the adapter holding the pooled client.
func NewDatabaseAdapter(config *MongoConfig, logger *logrus.Logger) (*DatabaseAdapter, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}

	opts := options.Client().
		ApplyURI(config.ConnectionURI()).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Infof("connected to mongo database %s", config.Database)

	return &DatabaseAdapter{
		client:   client,
		database: client.Database(config.Database),
		logger:   logger,
		timeout:  timeout,
	}, nil
}

func (a *DatabaseAdapter) Collection(name string) *mongo.Collection {
	return a.database.Collection(name)
}

// OpContext derives a context bounded by the configured operation timeout.
func (a *DatabaseAdapter) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

// EnsureIndexes creates the per-collection indexes at startup. The
// users unique index is what enforces username uniqueness.
func (a *DatabaseAdapter) EnsureIndexes(indexes map[string][]mongo.IndexModel) error {
	ctx, cancel := a.OpContext(context.Background())
	defer cancel()

	for collection, models := range indexes {
		if _, err := a.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		a.logger.Infof("ensured %d index(es) on collection %s", len(models), collection)
	}
	return nil
}

func (a *DatabaseAdapter) Ping() error {
	ctx, cancel := a.OpContext(context.Background())
	defer cancel()
	return a.client.Ping(ctx, readpref.Primary())
}

func (a *DatabaseAdapter) Close() error {
	ctx, cancel := a.OpContext(context.Background())
	defer cancel()
	return a.client.Disconnect(ctx)
}
