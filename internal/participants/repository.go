package participants

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventflow/checkin-backend/internal/models"
	"github.com/eventflow/checkin-backend/pkg/database"
)

// scanPageSize bounds each scan page; pages are followed until the
// table is exhausted.
const scanPageSize = 100

// Repository handles participant persistence in DynamoDB.
type Repository struct {
	db    *dynamodb.Client
	table string
}

// NewRepository creates a participants repository.
func NewRepository(db *dynamodb.Client, table string) *Repository {
	return &Repository{db: db, table: table}
}

// GetByID returns the participant or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var p models.Participant
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal participant: %w", err)
	}
	return &p, nil
}

// GetByEmail returns the participant via the email index, or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	keyCond := expression.Key("email").Equal(expression.Value(email))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build expression: %w", err)
	}
	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(database.IndexEmail),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var p models.Participant
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, fmt.Errorf("unmarshal participant: %w", err)
	}
	return &p, nil
}

// Put writes the participant, overwriting any record with the same id.
func (r *Repository) Put(ctx context.Context, p *models.Participant) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}
	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

// ScanAll returns every participant, following scan pagination until
// the table is exhausted.
func (r *Repository) ScanAll(ctx context.Context) ([]models.Participant, error) {
	var all []models.Participant
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.table),
			Limit:             aws.Int32(scanPageSize),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan participants: %w", err)
		}
		var page []models.Participant
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}
		all = append(all, page...)
		if out.LastEvaluatedKey == nil {
			return all, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Count returns the number of participant records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.table),
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("count participants: %w", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
