package tokenregistry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeTokenCollection struct {
	updateCalls   int
	lastFilter    interface{}
	lastUpdate    interface{}
	lastUpsert    bool
	updateErr     error
	findDocument  interface{}
	findErr       error
	lastFindQuery interface{}
}

func (c *fakeTokenCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	c.updateCalls++
	c.lastFilter = filter
	c.lastUpdate = update
	c.lastUpsert = false
	for _, opt := range opts {
		if opt.Upsert != nil && *opt.Upsert {
			c.lastUpsert = true
		}
	}

	if c.updateErr != nil {
		return nil, c.updateErr
	}

	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (c *fakeTokenCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	c.lastFindQuery = filter

	if c.findErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.findErr, nil)
	}

	return mongo.NewSingleResultFromDocument(c.findDocument, nil, nil)
}

func newTestRegistry(collection tokenCollection) *mongoRegistry {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &mongoRegistry{
		collection: collection,
		logger:     logger,
		now:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRegistry_StoreUpsertsByUserID(t *testing.T) {
	collection := &fakeTokenCollection{}
	registry := newTestRegistry(collection)

	if err := registry.Store(context.Background(), "user-1", "device-token-abcdef", "android"); err != nil {
		t.Fatalf("expected store to succeed, got: %v", err)
	}

	if !collection.lastUpsert {
		t.Error("expected an upsert, so repeated registrations never create duplicates")
	}

	filter, ok := collection.lastFilter.(bson.M)
	if !ok || filter["userId"] != "user-1" {
		t.Errorf("expected filter keyed by userId, got: %v", collection.lastFilter)
	}

	update, ok := collection.lastUpdate.(bson.M)
	if !ok {
		t.Fatalf("unexpected update document type: %T", collection.lastUpdate)
	}

	// $set merges into an existing record instead of replacing it.
	fields, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("expected a $set update, got: %v", update)
	}

	if fields["fcmToken"] != "device-token-abcdef" || fields["platform"] != "android" || fields["userId"] != "user-1" {
		t.Errorf("unexpected $set fields: %v", fields)
	}

	if _, hasTimestamp := fields["lastUpdated"]; !hasTimestamp {
		t.Error("expected lastUpdated to be set")
	}
}

func TestRegistry_StoreTwiceIssuesTwoUpsertsForSameKey(t *testing.T) {
	collection := &fakeTokenCollection{}
	registry := newTestRegistry(collection)

	if err := registry.Store(context.Background(), "user-1", "first-token-12345", "ios"); err != nil {
		t.Fatal(err)
	}
	if err := registry.Store(context.Background(), "user-1", "second-token-12345", "ios"); err != nil {
		t.Fatal(err)
	}

	if collection.updateCalls != 2 {
		t.Errorf("expected 2 upserts, got %d", collection.updateCalls)
	}

	fields := collection.lastUpdate.(bson.M)["$set"].(bson.M)
	if fields["fcmToken"] != "second-token-12345" {
		t.Errorf("expected the second token to win, got: %v", fields["fcmToken"])
	}
}

func TestRegistry_StoreWrapsBackendFailures(t *testing.T) {
	collection := &fakeTokenCollection{updateErr: errors.New("server selection timeout")}
	registry := newTestRegistry(collection)

	err := registry.Store(context.Background(), "user-1", "device-token-abcdef", "ios")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got: %v", err)
	}
}

func TestRegistry_FetchReturnsStoredToken(t *testing.T) {
	collection := &fakeTokenCollection{findDocument: TokenRecord{
		UserID:      "user-1",
		FCMToken:    "device-token-abcdef",
		Platform:    "ios",
		LastUpdated: time.Now(),
	}}
	registry := newTestRegistry(collection)

	token, found, err := registry.Fetch(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected fetch to succeed, got: %v", err)
	}

	if !found || token != "device-token-abcdef" {
		t.Errorf("unexpected fetch result: token=%q found=%v", token, found)
	}
}

func TestRegistry_FetchReturnsAbsentForUnknownUser(t *testing.T) {
	collection := &fakeTokenCollection{findErr: mongo.ErrNoDocuments}
	registry := newTestRegistry(collection)

	token, found, err := registry.Fetch(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("absence must not be an error, got: %v", err)
	}

	if found || token != "" {
		t.Errorf("expected absent result, got: token=%q found=%v", token, found)
	}
}

func TestRegistry_FetchDowngradesReadFailuresToAbsent(t *testing.T) {
	collection := &fakeTokenCollection{findErr: errors.New("server selection timeout")}
	registry := newTestRegistry(collection)

	token, found, err := registry.Fetch(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("read failures must be downgraded to absent, got: %v", err)
	}

	if found || token != "" {
		t.Errorf("expected absent result on backend failure, got: token=%q found=%v", token, found)
	}
}
