package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	UsersCollection      = "users"
	AccessLogsCollection = "access_logs"
)

// MongoUserRepository implements repository.UserRepository using MongoDB
type MongoUserRepository struct {
	db              *mongo.Database
	usersCollection *mongo.Collection
}

var _ repository.UserRepository = (*MongoUserRepository)(nil)

// NewMongoUserRepository creates the repository and its indexes.
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (*MongoUserRepository, error) {
	repo := &MongoUserRepository{
		db:              db,
		usersCollection: db.Collection(UsersCollection),
	}

	_, err := repo.usersCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return repo, nil
}

// CreateUser inserts user. A duplicate email maps to repository.ErrEmailTaken.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if user.ID == "" {
		return errors.New("user ID cannot be empty")
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	res, err := r.usersCollection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrEmailTaken
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ObjectID = oid
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByID retrieves a user by its public id
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	return r.findOne(ctx, bson.M{"id": id})
}

// Ping checks the primary is reachable.
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.usersCollection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
