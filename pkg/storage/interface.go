package storage

import "context"

// Store uploads local files to the object store and resolves public URLs
// for stored objects. Object URIs use the s3://bucket/key scheme.
type Store interface {
	// Upload writes the file at localPath under destKey in the configured
	// bucket and returns the object URI.
	Upload(ctx context.Context, localPath, destKey string) (string, error)

	// PublicURL converts an object URI into an externally fetchable HTTPS URL.
	PublicURL(objectURI string) (string, error)

	// Delete removes the object addressed by the given URI.
	Delete(ctx context.Context, objectURI string) error
}
