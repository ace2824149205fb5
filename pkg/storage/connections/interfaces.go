package storageconnections

import "context"

// BlockStorageConnection is a bucket-scoped connection to the object store.
type BlockStorageConnection interface {
	// UploadFile uploads a local file under the given object name.
	UploadFile(ctx context.Context, objectName, localPath, contentType, cacheControl string) error

	// DeleteObject removes the object with the given name.
	DeleteObject(ctx context.Context, objectName string) error

	// ObjectExists reports whether the object with the given name exists.
	ObjectExists(ctx context.Context, objectName string) (bool, error)
}
