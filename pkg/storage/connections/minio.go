package storageconnections

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioBlockStorageConnectionConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Location  string
	UseSSL    bool
}

type MinioBlockStorageConnection struct {
	config MinioBlockStorageConnectionConfig
	client *minio.Client
}

var _ BlockStorageConnection = (*MinioBlockStorageConnection)(nil)

func NewMinioBlockStorageConnection(ctx context.Context, config MinioBlockStorageConnectionConfig) (conn MinioBlockStorageConnection, err error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})

	if err != nil {
		return
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return
	}

	if !exists {
		makeBucketOptions := minio.MakeBucketOptions{Region: config.Location}
		if err = client.MakeBucket(ctx, config.Bucket, makeBucketOptions); err != nil {
			return
		}
	}

	conn = MinioBlockStorageConnection{
		config: config,
		client: client,
	}

	return
}

func (c *MinioBlockStorageConnection) UploadFile(ctx context.Context, objectName, localPath, contentType, cacheControl string) error {
	_, err := c.client.FPutObject(
		ctx,
		c.config.Bucket,
		objectName,
		localPath,
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: cacheControl,
		},
	)
	return err
}

func (c *MinioBlockStorageConnection) DeleteObject(ctx context.Context, objectName string) error {
	return c.client.RemoveObject(ctx, c.config.Bucket, objectName, minio.RemoveObjectOptions{})
}

func (c *MinioBlockStorageConnection) ObjectExists(ctx context.Context, objectName string) (exists bool, err error) {
	_, err = c.client.StatObject(ctx, c.config.Bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
