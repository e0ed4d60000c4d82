package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"meetup-server/models"
	"meetup-server/utils/errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const meetupCacheTTL = 24 * time.Hour

// MeetupCollection is the subset of *mongo.Collection the repository uses.
type MeetupCollection interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// MeetupCache is the subset of the Redis client used for cached meetups.
type MeetupCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// MongoRepository stores meetup snapshots in MongoDB and keeps a Redis copy
// of each one for reads.
type MongoRepository struct {
	collection  MeetupCollection
	redisClient MeetupCache // optional
}

// NewMongoRepository connects to MongoDB and, when redisClient is not nil,
// uses it as a read cache.
func NewMongoRepository(ctx context.Context, uri, database string, redisClient *redis.Client) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Println("Connected to MongoDB")
	collection := client.Database(database).Collection("meetups")

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "created_seq", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("Failed to create created_seq index on meetups: %v", err)
	}

	repo := &MongoRepository{collection: collection}
	if redisClient != nil {
		repo.redisClient = redisClient
	}
	return repo, nil
}

func meetupCacheKey(id string) string {
	return "meetup:" + id
}

// Save upserts the meetup document and refreshes the cache entry.
func (r *MongoRepository) Save(ctx context.Context, meetup models.Meetup) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": meetup.ID},
		meetup,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save meetup %s: %w", meetup.ID, err)
	}
	r.cache(ctx, meetup)
	return nil
}

// Get reads a single meetup, from Redis first and MongoDB otherwise.
func (r *MongoRepository) Get(ctx context.Context, id string) (models.Meetup, error) {
	if r.redisClient != nil {
		cached, err := r.redisClient.Get(ctx, meetupCacheKey(id)).Bytes()
		if err == nil {
			var meetup models.Meetup
			if err := bson.Unmarshal(cached, &meetup); err != nil {
				log.Printf("Failed to unmarshal cached meetup %s: %v", id, err)
			} else {
				return meetup, nil
			}
		}
	}

	var meetup models.Meetup
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&meetup)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return models.Meetup{}, errors.ErrMeetupNotFound
		}
		return models.Meetup{}, fmt.Errorf("failed to find meetup %s: %w", id, err)
	}
	r.cache(ctx, meetup)
	return meetup, nil
}

// LoadAll returns every stored meetup ordered by creation.
func (r *MongoRepository) LoadAll(ctx context.Context) ([]models.Meetup, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query meetups: %w", err)
	}
	defer cursor.Close(ctx)

	var meetups []models.Meetup
	if err := cursor.All(ctx, &meetups); err != nil {
		return nil, fmt.Errorf("failed to decode meetups: %w", err)
	}
	return meetups, nil
}

func (r *MongoRepository) cache(ctx context.Context, meetup models.Meetup) {
	if r.redisClient == nil {
		return
	}
	// Cached as BSON so fields hidden from the JSON API survive the round trip.
	raw, err := bson.Marshal(meetup)
	if err != nil {
		log.Printf("Failed to marshal meetup %s: %v", meetup.ID, err)
		return
	}
	if err := r.redisClient.Set(ctx, meetupCacheKey(meetup.ID), raw, meetupCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache meetup %s in Redis: %v", meetup.ID, err)
	}
}
