package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepo keeps sessions in a collection with a TTL index on
// expires_at. The TTL monitor only runs about once a minute, so reads
// also filter on expires_at.
type MongoSessionRepo struct {
	collection *mongo.Collection
	Now        func() time.Time
}

func NewMongoSessionRepo(db *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{
		collection: db.Collection("sessions"),
		Now:        time.Now,
	}
}

func (r *MongoSessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("sessions_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("sessions_user"),
		},
	})
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) Put(ctx context.Context, sess *Session) error {
	if _, err := r.collection.InsertOne(ctx, sess); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("session already exists: %w", err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session

	err := r.collection.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": r.Now()},
	}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &sess, nil
}

func (r *MongoSessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoSessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": r.Now()}})
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.DeletedCount, nil
}
