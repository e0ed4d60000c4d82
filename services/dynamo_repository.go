package services

import (
	"context"
	"fmt"
	"log"
	"meetup-server/models"
	"meetup-server/utils/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository stores one item per meetup keyed by "id".
type DynamoRepository struct {
	Client    DynamoAPI
	TableName string
}

// NewDynamoRepository builds a client from the default AWS config chain.
func NewDynamoRepository(ctx context.Context, region, tableName string) (*DynamoRepository, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Printf("Using DynamoDB table '%s' in region %s", tableName, region)
	return &DynamoRepository{Client: dynamodb.NewFromConfig(cfg), TableName: tableName}, nil
}

func (r *DynamoRepository) Save(ctx context.Context, meetup models.Meetup) error {
	item, err := attributevalue.MarshalMap(meetup)
	if err != nil {
		return fmt.Errorf("failed to marshal meetup %s: %w", meetup.ID, err)
	}
	_, err = r.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put meetup in table '%s': %w", r.TableName, err)
	}
	return nil
}

func (r *DynamoRepository) Get(ctx context.Context, id string) (models.Meetup, error) {
	output, err := r.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.TableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return models.Meetup{}, fmt.Errorf("failed to get meetup from table '%s': %w", r.TableName, err)
	}
	if output.Item == nil {
		return models.Meetup{}, errors.ErrMeetupNotFound
	}

	var meetup models.Meetup
	if err := attributevalue.UnmarshalMap(output.Item, &meetup); err != nil {
		return models.Meetup{}, fmt.Errorf("failed to unmarshal meetup %s: %w", id, err)
	}
	return meetup, nil
}

// LoadAll scans the whole table, following pagination.
func (r *DynamoRepository) LoadAll(ctx context.Context) ([]models.Meetup, error) {
	var (
		items    []map[string]types.AttributeValue
		startKey map[string]types.AttributeValue
	)
	for {
		output, err := r.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.TableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", r.TableName, err)
		}
		items = append(items, output.Items...)
		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		startKey = output.LastEvaluatedKey
	}

	var meetups []models.Meetup
	if err := attributevalue.UnmarshalListOfMaps(items, &meetups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meetups: %w", err)
	}
	return meetups, nil
}
