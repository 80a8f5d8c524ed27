package mongodb

import (
	"context"
	"fmt"

	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAccessLogRepository appends login history to the access_logs collection.
type MongoAccessLogRepository struct {
	collection *mongo.Collection
}

var _ repository.AccessLogRepository = (*MongoAccessLogRepository)(nil)

// NewMongoAccessLogRepository creates the repository and a per-user index.
func NewMongoAccessLogRepository(ctx context.Context, db *mongo.Database) (*MongoAccessLogRepository, error) {
	coll := db.Collection(AccessLogsCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create access log index: %w", err)
	}
	return &MongoAccessLogRepository{collection: coll}, nil
}

// Record inserts entry.
func (r *MongoAccessLogRepository) Record(ctx context.Context, entry *model.AccessLog) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}
