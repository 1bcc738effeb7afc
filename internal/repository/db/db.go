package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/repository/migrate"
)

type DynamoDb struct {
	Client *dynamodb.Client
}

func NewDatabase(awsConfig aws.Config) (*DynamoDb, error) {
	client := dynamodb.NewFromConfig(awsConfig)
	if client == nil {
		return nil, fmt.Errorf("failed to create DynamoDB client")
	}

	return &DynamoDb{
		Client: client,
	}, nil
}

// MigrateDb applies every migration in order
func (d *DynamoDb) MigrateDb(ctx context.Context, partitionTable string) error {
	for _, m := range migrate.Migrations(partitionTable) {
		log.Infof("Applying migration %s (%s)", m.Version(), m.TableName())
		if err := m.Up(ctx, d.Client); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Version(), err)
		}
	}
	return nil
}

// MigrateDown reverts every migration, newest first
func (d *DynamoDb) MigrateDown(ctx context.Context, partitionTable string) error {
	migrations := migrate.Migrations(partitionTable)
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		log.Infof("Reverting migration %s (%s)", m.Version(), m.TableName())
		if err := m.Down(ctx, d.Client); err != nil {
			return fmt.Errorf("reverting %s failed: %w", m.Version(), err)
		}
	}
	return nil
}
