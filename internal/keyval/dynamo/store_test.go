package dynamo

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promptadmin/internal/keyval"
)

// stubDDB records the last input per call and returns canned responses.
type stubDDB struct {
	getOut  *dynamodb.GetItemOutput
	putErr  error
	updErr  error
	txErr   error
	lastPut *dynamodb.PutItemInput
	lastUpd *dynamodb.UpdateItemInput
	lastQry *dynamodb.QueryInput
	qryOut  *dynamodb.QueryOutput
}

func (s *stubDDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if s.getOut != nil {
		return s.getOut, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (s *stubDDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.lastPut = in
	return &dynamodb.PutItemOutput{}, s.putErr
}

func (s *stubDDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	s.lastUpd = in
	return &dynamodb.UpdateItemOutput{}, s.updErr
}

func (s *stubDDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (s *stubDDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	s.lastQry = in
	if s.qryOut != nil {
		return s.qryOut, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func (s *stubDDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func (s *stubDDB) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return &dynamodb.TransactWriteItemsOutput{}, s.txErr
}

func (s *stubDDB) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return &dynamodb.CreateTableOutput{}, nil
}

func newStubStore(stub *stubDDB) *Store {
	return NewWithClient(stub, "test-table", zap.NewNop())
}

type payload struct {
	Name string `dynamodbav:"name"`
}

func TestMarshalItemInjectsKeyAttributes(t *testing.T) {
	stub := &stubDDB{}
	store := newStubStore(stub)

	err := store.Put(context.Background(), keyval.Key{Partition: "PROMPT#p1", Sort: "METADATA"}, payload{Name: "x"})
	require.NoError(t, err)
	require.NotNil(t, stub.lastPut)

	pk, ok := stub.lastPut.Item[partitionKeyName].(*types.AttributeValueMemberS)
	require.True(t, ok)
	require.Equal(t, "PROMPT#p1", pk.Value)
	sk, ok := stub.lastPut.Item[sortKeyName].(*types.AttributeValueMemberS)
	require.True(t, ok)
	require.Equal(t, "METADATA", sk.Value)
}

func TestGetMissingItem(t *testing.T) {
	store := newStubStore(&stubDDB{})
	var out payload
	err := store.Get(context.Background(), keyval.Key{Partition: "PROMPT#p1", Sort: "METADATA"}, &out)
	require.ErrorIs(t, err, keyval.ErrNotFound)
}

func TestCreateTranslatesConditionFailure(t *testing.T) {
	stub := &stubDDB{putErr: &types.ConditionalCheckFailedException{}}
	store := newStubStore(stub)

	err := store.Create(context.Background(), keyval.Key{Partition: "USER#a", Sort: "METADATA"}, payload{Name: "x"})
	require.ErrorIs(t, err, keyval.ErrConditionFailed)
	// The insert was guarded by a not-exists condition.
	require.NotNil(t, stub.lastPut.ConditionExpression)
}

func TestUpdateMissingItemBecomesNotFound(t *testing.T) {
	stub := &stubDDB{updErr: &types.ConditionalCheckFailedException{}}
	store := newStubStore(stub)

	err := store.Update(context.Background(), keyval.Key{Partition: "USER#a", Sort: "METADATA"}, map[string]any{"name": "y"})
	require.ErrorIs(t, err, keyval.ErrNotFound)
	require.NotNil(t, stub.lastUpd.ConditionExpression)
	require.NotNil(t, stub.lastUpd.UpdateExpression)
}

func TestApplyTxTranslatesCancellation(t *testing.T) {
	stub := &stubDDB{txErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}}
	store := newStubStore(stub)

	err := store.ApplyTx(context.Background(),
		keyval.UpdateOp{Key: keyval.Key{Partition: "P", Sort: "A"}, Set: map[string]any{"is_stable": false}},
		keyval.UpdateOp{Key: keyval.Key{Partition: "P", Sort: "B"}, Set: map[string]any{"is_stable": true}},
	)
	require.ErrorIs(t, err, keyval.ErrConditionFailed)
}

func TestApplyTxEmptyBatchIsNoop(t *testing.T) {
	store := newStubStore(&stubDDB{})
	require.NoError(t, store.ApplyTx(context.Background()))
}

func TestQuerySetsScanIndexForward(t *testing.T) {
	stub := &stubDDB{}
	store := newStubStore(stub)
	var out []payload

	err := store.Query(context.Background(), "PROMPT#p1", keyval.QueryOptions{
		Sort:       keyval.BeginsWith("VERSION#"),
		Descending: true,
	}, &out)
	require.NoError(t, err)
	require.NotNil(t, stub.lastQry)
	require.False(t, aws.ToBool(stub.lastQry.ScanIndexForward))
	require.NotNil(t, stub.lastQry.KeyConditionExpression)
}

func TestQueryClientSideLimit(t *testing.T) {
	item := func(name string) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		}
	}
	stub := &stubDDB{qryOut: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{item("a"), item("b"), item("c")},
	}}
	store := newStubStore(stub)

	var out []payload
	err := store.Query(context.Background(), "PROMPT#p1", keyval.QueryOptions{Limit: 2}, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].Name)
}
