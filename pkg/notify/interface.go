package notify

import "context"

// TokenSource resolves short-lived bearer credentials for the push-messaging
// provider from a service-account identity.
type TokenSource interface {
	// Token exchanges the service-account identity for an access token
	// scoped to push messaging. Each call re-resolves; no caching.
	Token(ctx context.Context) (string, error)
}

// Dispatcher sends push messages to individual devices.
type Dispatcher interface {
	// Send delivers an image-ready push message to the given device token.
	Send(ctx context.Context, deviceToken, imageURL, filterName string) error
}
