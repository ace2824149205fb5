package registryconnections

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RegistryDBConfig struct {
	ConnectionString string
	Database         string
}

// RegistryDBConnection exposes named collections of the registry database.
type RegistryDBConnection interface {
	Collection(collectionName string) *mongo.Collection
}

type RegistryDBProductionConnection struct {
	config RegistryDBConfig
	client *mongo.Client
}

var _ RegistryDBConnection = (*RegistryDBProductionConnection)(nil)

func NewRegistryDBProductionConnection(ctx context.Context, config RegistryDBConfig) (RegistryDBConnection, error) {
	if config.Database == "" {
		config.Database = "pixmix"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConnectionString))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &RegistryDBProductionConnection{
		config: config,
		client: client,
	}, nil
}

func (c *RegistryDBProductionConnection) Collection(collectionName string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(collectionName)
}
