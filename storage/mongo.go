package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/mongozilla/compiler"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStorageConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    MongoStorageConfig
}

func NewMongoStorage(cfg MongoStorageConfig) (*MongoStorage, error) {
	return &MongoStorage{cfg: cfg}, nil
}

func (s *MongoStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(s.cfg.URI).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.client = client
	s.db = client.Database(s.cfg.Database)

	return nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

// Query executes a compiled query descriptor and returns the matching
// documents. The descriptor's filter is passed to the server untouched.
func (s *MongoStorage) Query(ctx context.Context, desc compiler.QueryDescriptor) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	opts := options.Find()
	if len(desc.Projection) > 0 {
		opts.SetProjection(desc.Projection)
	}
	if desc.Limit > 0 {
		opts.SetLimit(desc.Limit)
	}
	if desc.Skip > 0 {
		opts.SetSkip(desc.Skip)
	}

	cursor, err := s.db.Collection(desc.Collection).Find(ctx, desc.Filter, opts)
	if err != nil {
		return nil, fmt.Errorf("couldn't execute query: %w", err)
	}

	var documents []bson.M
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("couldn't read query results: %w", err)
	}

	return documents, nil
}

// InsertOne inserts a single document into the named collection. Documents
// without an _id get a fresh uuid so callers can reference them afterwards.
func (s *MongoStorage) InsertOne(ctx context.Context, collection string, document bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	if _, ok := document["_id"]; !ok {
		document["_id"] = uuid.NewString()
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, document); err != nil {
		return fmt.Errorf("couldn't insert document: %w", err)
	}

	return nil
}
