package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/morphsplit/internal/domain"
)

// DynamoDBAPI is the part of the DynamoDB client the repository uses
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// PartitionRepository manages DynamoDB interactions for PartitionRecord.
type PartitionRepository struct {
	client    DynamoDBAPI
	tableName string
}

// NewPartitionRepository initializes a new PartitionRepository.
func NewPartitionRepository(client DynamoDBAPI, tableName string) *PartitionRepository {
	return &PartitionRepository{
		client:    client,
		tableName: tableName,
	}
}

// CreateRecord stores a partition record, replacing any earlier record for
// the same alignment and partition.
func (repo *PartitionRepository) CreateRecord(ctx context.Context, record domain.PartitionRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal partition record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}
	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to create partition record %s: %w", record.PartitionID, err)
	}
	return nil
}

// ListRecords retrieves every partition record of an alignment.
func (repo *PartitionRepository) ListRecords(ctx context.Context, alignmentID string) ([]domain.PartitionRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(repo.tableName),
		KeyConditionExpression: aws.String("#alignment = :alignment"),
		ExpressionAttributeNames: map[string]string{
			"#alignment": "alignment_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":alignment": &types.AttributeValueMemberS{Value: alignmentID},
		},
	}

	var records []domain.PartitionRecord
	for {
		result, err := repo.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query partition records: %w", err)
		}

		page := make([]domain.PartitionRecord, 0, len(result.Items))
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal partition records: %w", err)
		}
		records = append(records, page...)

		if len(result.LastEvaluatedKey) == 0 {
			return records, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// DeleteRecords removes every partition record of an alignment and returns
// how many were removed.
func (repo *PartitionRepository) DeleteRecords(ctx context.Context, alignmentID string) (int, error) {
	records, err := repo.ListRecords(ctx, alignmentID)
	if err != nil {
		return 0, err
	}

	for i, record := range records {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(repo.tableName),
			Key: map[string]types.AttributeValue{
				"alignment_id": &types.AttributeValueMemberS{Value: record.AlignmentID},
				"partition_id": &types.AttributeValueMemberS{Value: record.PartitionID},
			},
		}
		if _, err := repo.client.DeleteItem(ctx, input); err != nil {
			return i, fmt.Errorf("failed to delete partition record %s: %w", record.PartitionID, err)
		}
	}
	return len(records), nil
}
