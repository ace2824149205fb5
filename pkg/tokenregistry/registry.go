package tokenregistry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	registryconnections "github.com/pixmix/pixmix-backend/pkg/tokenregistry/connections"
)

const tokenCollectionName = "user_tokens"

// tokenCollection is the slice of *mongo.Collection the registry uses,
// narrowed for substitutability in tests.
type tokenCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

type mongoRegistry struct {
	collection tokenCollection
	logger     *slog.Logger
	now        func() time.Time
}

var _ Registry = (*mongoRegistry)(nil)

func NewMongoRegistry(conn registryconnections.RegistryDBConnection, logger *slog.Logger) Registry {
	return &mongoRegistry{
		collection: conn.Collection(tokenCollectionName),
		logger:     logger,
		now:        time.Now,
	}
}

func (r *mongoRegistry) Store(ctx context.Context, userID, token, platform string) error {
	update := bson.M{"$set": bson.M{
		"userId":      userID,
		"fcmToken":    token,
		"platform":    platform,
		"lastUpdated": r.now(),
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	return nil
}

// Fetch downgrades backend read failures to "absent" so that a registry
// outage never fails the caller; the loss is logged.
func (r *mongoRegistry) Fetch(ctx context.Context, userID string) (string, bool, error) {
	var record TokenRecord
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&record); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("token registry read failed, treating as absent", "userId", userID, "error", err)
		}
		return "", false, nil
	}

	return record.FCMToken, true, nil
}

var ErrStoreUnavailable = errors.New("token registry unavailable")
