// Package dynamo implements keyval.Store on AWS DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"promptadmin/internal/keyval"
)

const (
	partitionKeyName = "pk"
	sortKeyName      = "sk"
)

// API is the subset of the DynamoDB client the store uses. Tests stub it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Config struct {
	Table    string
	Region   string
	// Endpoint overrides the service endpoint, for dynamodb-local.
	Endpoint string
}

type Store struct {
	ddb   API
	table string
	log   *zap.Logger
}

var _ keyval.Store = &Store{}

// New connects to DynamoDB and verifies the credentials with an STS
// caller-identity probe so a misconfigured deployment fails at startup
// rather than on the first request.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.Endpoint == "" {
		ident, err := sts.NewFromConfig(awscfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return nil, fmt.Errorf("verify aws credentials: %w", err)
		}
		log.Info("connected to dynamodb",
			zap.String("table", cfg.Table),
			zap.String("account", aws.ToString(ident.Account)),
			zap.String("arn", aws.ToString(ident.Arn)))
	}

	ddb := dynamodb.NewFromConfig(awscfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(ddb, cfg.Table, log), nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(ddb API, table string, log *zap.Logger) *Store {
	return &Store{ddb: ddb, table: table, log: log}
}

func (s *Store) Close() error { return nil }

// InitTable creates the single table with its pk/sk string key schema.
// Safe to call when the table already exists.
func (s *Store) InitTable(ctx context.Context) error {
	_, err := s.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &s.table,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(partitionKeyName), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(sortKeyName), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(partitionKeyName), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(sortKeyName), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			s.log.Info("table already exists", zap.String("table", s.table))
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	if client, ok := s.ddb.(*dynamodb.Client); ok {
		waiter := dynamodb.NewTableExistsWaiter(client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &s.table}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", s.table, err)
		}
	}
	s.log.Info("table created", zap.String("table", s.table))
	return nil
}

// translateConditionErr maps the SDK's conditional-check failures onto the
// keyval error the repositories understand.
func translateConditionErr(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return keyval.ErrConditionFailed
	}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return keyval.ErrConditionFailed
			}
		}
	}
	return err
}
