package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/xy-planning-network/retention"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens a client to uri and returns the named database.
// Callers disconnect the database's client when done.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("%w: mongo uri and database are required", retention.ErrBadConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongo: %s", retention.ErrBadConfig, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: pinging mongo: %s", retention.ErrDependency, err)
	}

	return client.Database(database), nil
}

// Ping reports whether the database's primary is reachable.
func Ping(ctx context.Context, db *mongo.Database) error {
	if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %s", retention.ErrDependency, err)
	}

	return nil
}
