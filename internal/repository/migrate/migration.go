package migrate

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Migration is one versioned change to the DynamoDB schema
type Migration interface {
	Version() string
	TableName() string
	Up(ctx context.Context, client *dynamodb.Client) error
	Down(ctx context.Context, client *dynamodb.Client) error
}

// Migrations lists every migration in the order it must be applied
func Migrations(partitionTable string) []Migration {
	return []Migration{
		&CreatePartitionRecordsTable{Table: partitionTable},
	}
}
