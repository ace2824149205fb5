package main

import (
	"context"
	"time"

	"github.com/pixmix/pixmix-backend/pkg/config"
	"github.com/pixmix/pixmix-backend/pkg/identity"
	"github.com/pixmix/pixmix-backend/pkg/notify"
	"github.com/pixmix/pixmix-backend/pkg/storage"
	storageconnections "github.com/pixmix/pixmix-backend/pkg/storage/connections"
	registryconnections "github.com/pixmix/pixmix-backend/pkg/tokenregistry/connections"
	"github.com/pixmix/pixmix-backend/pkg/transform"
)

const connectTimeout = time.Minute

func initializeStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := storageconnections.NewMinioBlockStorageConnection(ctx, storageconnections.MinioBlockStorageConnectionConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, err
	}

	return storage.NewStoreService(storage.StoreConfig{
		Bucket:     cfg.StorageBucket,
		PublicHost: cfg.StoragePublicHost,
	}, &conn), nil
}

func initializeRegistryConnection(ctx context.Context, cfg *config.Config) (registryconnections.RegistryDBConnection, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return registryconnections.NewRegistryDBProductionConnection(ctx, registryconnections.RegistryDBConfig{
		ConnectionString: cfg.MongoConnectionString,
	})
}

func initializeTransformer(cfg *config.Config) transform.Transformer {
	return transform.NewTransformService(transform.Config{
		APIKey:    cfg.TransformAPIKey,
		OutputDir: cfg.UploadsDir,
	})
}

func initializeDispatcher(cfg *config.Config) notify.Dispatcher {
	tokenSource := notify.NewServiceAccountTokenSource(notify.CredentialConfig{
		ClientEmail: cfg.ServiceClientEmail,
		PrivateKey:  cfg.ServicePrivateKey,
	})

	return notify.NewFCMDispatcher(notify.DispatcherConfig{
		ProjectID: cfg.ProjectID,
	}, tokenSource)
}

func initializeVerifier(cfg *config.Config) identity.Verifier {
	return identity.NewTokenVerifier(identity.VerifierConfig{
		ProjectID: cfg.ProjectID,
	})
}
