package migrate

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	PartitionRecordsTableName = "partition_records"
	PartitionRecordsVersion   = "20251015000000_partition_records_table"
)

// CreatePartitionRecordsTable creates the table holding one item per
// state-count partition, keyed by alignment and partition ID.
type CreatePartitionRecordsTable struct {
	Table string
}

func (m *CreatePartitionRecordsTable) Version() string {
	return PartitionRecordsVersion
}

func (m *CreatePartitionRecordsTable) TableName() string {
	if m.Table == "" {
		return PartitionRecordsTableName
	}
	return m.Table
}

func (m *CreatePartitionRecordsTable) Up(ctx context.Context, client *dynamodb.Client) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("alignment_id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("partition_id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("alignment_id"),
				KeyType:       types.KeyTypeHash,
			},
			{
				AttributeName: aws.String("partition_id"),
				KeyType:       types.KeyTypeRange,
			},
		},
		TableName:   aws.String(m.TableName()),
		BillingMode: types.BillingModePayPerRequest,
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("MorphologicalPartitions"),
			},
		},
	}

	if _, err := client.CreateTable(ctx, input); err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return err
		}
		log.Infof("Table %s already exists", m.TableName())
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(m.TableName()),
	}, 5*time.Minute)
}

func (m *CreatePartitionRecordsTable) Down(ctx context.Context, client *dynamodb.Client) error {
	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(m.TableName()),
	})
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		log.Infof("Table %s does not exist", m.TableName())
		return nil
	}
	return err
}
