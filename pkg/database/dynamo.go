package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// IndexEmail is the participants GSI keyed by email.
const IndexEmail = "email-index"

// IndexParticipant is the check-ins GSI keyed by participantId + timestamp.
const IndexParticipant = "participant-index"

// NewDynamoClient creates a DynamoDB client. endpointURL overrides the
// service endpoint for local stacks; empty uses the AWS default.
func NewDynamoClient(awsCfg aws.Config, endpointURL string) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
}

// EnsureTables creates the participants and check-ins tables with their
// secondary indexes when absent. Existing tables are left untouched.
func EnsureTables(ctx context.Context, client *dynamodb.Client, participantsTable, checkinsTable string, logger *zap.Logger) error {
	if err := ensureTable(ctx, client, participantsTableInput(participantsTable), logger); err != nil {
		return fmt.Errorf("participants table: %w", err)
	}
	if err := ensureTable(ctx, client, checkinsTableInput(checkinsTable), logger); err != nil {
		return fmt.Errorf("checkins table: %w", err)
	}
	return nil
}

func ensureTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput, logger *zap.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table: %w", err)
	}

	if logger != nil {
		logger.Info("creating DynamoDB table", zap.String("table", aws.ToString(input.TableName)))
	}
	if _, err := client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}
	return nil
}

func participantsTableInput(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(IndexEmail),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

func checkinsTableInput(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("participantId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("timestamp"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(IndexParticipant),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("participantId"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("timestamp"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}
