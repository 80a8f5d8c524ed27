package mongodb

import (
	"context"
	"errors"
	"fmt"

	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	PostsCollection = "posts"
	// UsersCollection is owned by the auth module; posts only read it.
	UsersCollection = "users"
)

// MongoPostRepository stores posts and joins them with users on read.
type MongoPostRepository struct {
	db    *mongo.Database
	posts *mongo.Collection
}

var _ repository.PostRepository = (*MongoPostRepository)(nil)

// NewMongoPostRepository creates the repository and its indexes.
func NewMongoPostRepository(ctx context.Context, db *mongo.Database) (*MongoPostRepository, error) {
	coll := db.Collection(PostsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create post indexes: %w", err)
	}

	return &MongoPostRepository{db: db, posts: coll}, nil
}

// Ping checks the primary is reachable.
func (r *MongoPostRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

// Create inserts post.
func (r *MongoPostRepository) Create(ctx context.Context, post *model.Post) error {
	if post == nil || post.ID == "" {
		return errors.New("post with id is required")
	}
	if post.CreatedAt.IsZero() {
		return errors.New("post created_at is required")
	}

	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// ListRecent reads the newest posts joined with their authors. The $unwind drops posts whose
// author was deleted.
func (r *MongoPostRepository) ListRecent(ctx context.Context, limit int64) ([]*model.Entry, error) {
	if limit <= 0 {
		return []*model.Entry{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersCollection},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$unwind", Value: "$author"}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "body", Value: 1},
			{Key: "image_filename", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "author.id", Value: 1},
			{Key: "author.name", Value: 1},
			{Key: "author.icon_filename", Value: 1},
		}}},
	}

	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate timeline: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.Entry
	for cursor.Next(ctx) {
		var entry model.Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode timeline entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	if entries == nil {
		entries = []*model.Entry{}
	}
	return entries, nil
}
