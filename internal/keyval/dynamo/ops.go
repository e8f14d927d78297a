package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"promptadmin/internal/keyval"
)

func (s *Store) keyAttrs(key keyval.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		partitionKeyName: &types.AttributeValueMemberS{Value: key.Partition},
		sortKeyName:      &types.AttributeValueMemberS{Value: key.Sort},
	}
}

// marshalItem converts the entity to an attribute map and injects the
// primary key attributes.
func (s *Store) marshalItem(key keyval.Key, entity any) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("marshal entity: %w", err)
	}
	item[partitionKeyName] = &types.AttributeValueMemberS{Value: key.Partition}
	item[sortKeyName] = &types.AttributeValueMemberS{Value: key.Sort}
	return item, nil
}

func (s *Store) Get(ctx context.Context, key keyval.Key, out any) error {
	res, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key:       s.keyAttrs(key),
	})
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if res.Item == nil {
		return keyval.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key keyval.Key, entity any) error {
	item, err := s.marshalItem(key, entity)
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, key keyval.Key, entity any) error {
	item, err := s.marshalItem(key, entity)
	if err != nil {
		return err
	}
	cond := expression.AttributeNotExists(expression.Name(partitionKeyName))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build create condition: %w", err)
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 &s.table,
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if err := translateConditionErr(err); err == keyval.ErrConditionFailed {
			return keyval.ErrConditionFailed
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, key keyval.Key, set map[string]any) error {
	expr, err := buildUpdateExpr(set)
	if err != nil {
		return err
	}
	_, err = s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &s.table,
		Key:                       s.keyAttrs(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if err := translateConditionErr(err); err == keyval.ErrConditionFailed {
			return keyval.ErrNotFound
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key keyval.Key) error {
	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       s.keyAttrs(key),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ApplyTx maps the batch onto TransactWriteItems, so the whole batch
// commits or none of it does.
func (s *Store) ApplyTx(ctx context.Context, ops ...keyval.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		twi, err := s.toTransactItem(op)
		if err != nil {
			return err
		}
		items = append(items, twi)
	}
	_, err := s.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if err := translateConditionErr(err); err == keyval.ErrConditionFailed {
			return keyval.ErrConditionFailed
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func (s *Store) toTransactItem(op keyval.WriteOp) (types.TransactWriteItem, error) {
	switch a := op.(type) {
	case keyval.PutOp:
		item, err := s.marshalItem(a.Key, a.Entity)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Put: &types.Put{
			TableName: &s.table,
			Item:      item,
		}}, nil
	case keyval.UpdateOp:
		expr, err := buildUpdateExpr(a.Set)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                 &s.table,
			Key:                       s.keyAttrs(a.Key),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}}, nil
	case keyval.DeleteOp:
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName: &s.table,
			Key:       s.keyAttrs(a.Key),
		}}, nil
	default:
		return types.TransactWriteItem{}, fmt.Errorf("unknown write op type %T", op)
	}
}

// buildUpdateExpr builds a SET expression over the given attributes,
// conditioned on the item existing.
func buildUpdateExpr(set map[string]any) (expression.Expression, error) {
	if len(set) == 0 {
		return expression.Expression{}, fmt.Errorf("update requires at least one attribute")
	}
	var upd expression.UpdateBuilder
	for name, value := range set {
		upd = upd.Set(expression.Name(name), expression.Value(value))
	}
	cond := expression.AttributeExists(expression.Name(partitionKeyName))
	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build update expression: %w", err)
	}
	return expr, nil
}
