package tokenregistry

import (
	"context"
	"time"
)

// TokenRecord is the persisted association between a user and their device
// push token. One record per user.
type TokenRecord struct {
	UserID      string    `json:"userId" bson:"userId"`
	FCMToken    string    `json:"fcmToken" bson:"fcmToken"`
	Platform    string    `json:"platform" bson:"platform"`
	LastUpdated time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

// Registry persists device push tokens keyed by user identifier.
type Registry interface {
	// Store upserts the token record for userID, merging fields into any
	// existing record instead of replacing it.
	Store(ctx context.Context, userID, token, platform string) error

	// Fetch returns the stored token for userID. The second return value is
	// false when no record exists; backend read failures are downgraded to
	// absent rather than propagated.
	Fetch(ctx context.Context, userID string) (token string, found bool, err error)
}
