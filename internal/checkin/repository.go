package checkin

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventflow/checkin-backend/internal/models"
	"github.com/eventflow/checkin-backend/pkg/database"
)

const scanPageSize = 100

// Repository handles check-in persistence in DynamoDB. Besides the
// check-in records it keeps per-participant-per-day marker items whose
// conditional insert decides first-of-day status atomically; markers
// carry no "method" attribute and are filtered out of every read.
type Repository struct {
	db    *dynamodb.Client
	table string
}

// NewRepository creates a check-ins repository.
func NewRepository(db *dynamodb.Client, table string) *Repository {
	return &Repository{db: db, table: table}
}

// Create writes a check-in record.
func (r *Repository) Create(ctx context.Context, c *models.CheckIn) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal checkin: %w", err)
	}
	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put checkin: %w", err)
	}
	return nil
}

// FirstOfDay inserts the day marker for participantID+day and reports
// whether this call created it. A conditional put closes the window
// where two concurrent check-ins could both observe "no check-in yet".
func (r *Repository) FirstOfDay(ctx context.Context, participantID, day string) (bool, error) {
	_, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "day#" + participantID + "#" + day},
		},
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return false, nil
		}
		return false, fmt.Errorf("put day marker: %w", err)
	}
	return true, nil
}

// ListByParticipant returns a participant's check-ins, most recent
// first. Day markers never enter the index (they have no participantId).
func (r *Repository) ListByParticipant(ctx context.Context, participantID string) ([]models.CheckIn, error) {
	keyCond := expression.Key("participantId").Equal(expression.Value(participantID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}
	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(database.IndexParticipant),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query checkins: %w", err)
	}
	var list []models.CheckIn
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &list); err != nil {
		return nil, fmt.Errorf("unmarshal checkins: %w", err)
	}
	return list, nil
}

// ScanAll returns every check-in record, skipping day markers.
func (r *Repository) ScanAll(ctx context.Context) ([]models.CheckIn, error) {
	filter := expression.Name("method").AttributeExists()
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}
	var all []models.CheckIn
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(scanPageSize),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan checkins: %w", err)
		}
		var page []models.CheckIn
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal checkins: %w", err)
		}
		all = append(all, page...)
		if out.LastEvaluatedKey == nil {
			return all, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Count returns the number of check-in records, skipping day markers.
func (r *Repository) Count(ctx context.Context) (int, error) {
	filter := expression.Name("method").AttributeExists()
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return 0, fmt.Errorf("build expression: %w", err)
	}
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("count checkins: %w", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
