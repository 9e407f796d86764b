package tracking

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
)

// CollectionName holds one document per usage event.
const CollectionName = "tracking_users"

// MongoSink stores usage events in a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ Sink = (*MongoSink)(nil)

// ConnectMongo opens a client for uri and targets database's usage collection.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
	}, nil
}

// SaveBatch inserts one document per event.
func (s *MongoSink) SaveBatch(ctx context.Context, events []model.UsageEvent) error {
	docs := make([]interface{}, len(events))
	for i, event := range events {
		docs[i] = event
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return apperrors.Dependency("mongo", fmt.Errorf("insert usage events: %w", err))
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
