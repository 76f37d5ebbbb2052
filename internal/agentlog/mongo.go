package agentlog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/logging"
)

// Collection is the Mongo collection holding the assistant log.
const Collection = "assistant_log"

const dbName = "kassabok"

// DataStore is the subset of *mongo.Collection the sink needs.
type DataStore interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) DataStore
}

// MongoCollection adapts *mongo.Collection to DataStore.
type MongoCollection struct {
	*mongo.Collection
}

// InsertMany inserts documents in one round trip.
func (c *MongoCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	result, err := c.Collection.InsertMany(ctx, documents, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to perform InsertMany: %w", err)
	}
	return result, nil
}

// MongoProvider adapts *mongo.Client to CollectionProvider.
type MongoProvider struct {
	client *mongo.Client
}

// NewMongoProvider creates a new MongoProvider.
func NewMongoProvider(client *mongo.Client) *MongoProvider {
	return &MongoProvider{client: client}
}

// Collection returns a DataStore for the given collection name.
func (p *MongoProvider) Collection(name string) DataStore {
	return &MongoCollection{p.client.Database(dbName).Collection(name)}
}

// Connect establishes and verifies a MongoDB connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	log := logging.FromContext(ctx)
	log.Debug("connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB")
	return client, nil
}

// MongoSink writes entries to the assistant_log collection.
type MongoSink struct {
	collection DataStore
}

// NewMongoSink returns a sink on provider's assistant_log collection.
func NewMongoSink(provider CollectionProvider) *MongoSink {
	return &MongoSink{collection: provider.Collection(Collection)}
}

// Append implements Sink.
func (s *MongoSink) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	res, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("appending %d assistant log entries: %w", len(entries), err)
	}
	logging.FromContext(ctx).Debug("assistant log appended", zap.Int("inserted", len(res.InsertedIDs)))
	return nil
}
