// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a MongoDB client and returns the named database handle.
func Connect(url, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(url).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureAllIndexes builds indexes for every studio collection. Called once
// at startup.
func EnsureAllIndexes(ctx context.Context, layouts *LayoutAdapter, queue *QueueAdapter, brand *BrandAdapter) error {
	if err := layouts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("layout indexes: %w", err)
	}
	if err := queue.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("queue indexes: %w", err)
	}
	if err := brand.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("brand indexes: %w", err)
	}
	return nil
}
