package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"promptadmin/internal/keyval"
)

func (s *Store) Query(ctx context.Context, partition string, opts keyval.QueryOptions, out any) error {
	key := expression.KeyEqual(expression.Key(partitionKeyName), expression.Value(partition))
	if opts.Sort != nil {
		cond, err := sortKeyCondition(opts.Sort)
		if err != nil {
			return err
		}
		key = key.And(cond)
	}

	b := expression.NewBuilder().WithKeyCondition(key)
	if len(opts.Filter) > 0 {
		b = b.WithFilter(filterCondition(opts.Filter))
	}
	expr, err := b.Build()
	if err != nil {
		return fmt.Errorf("build query expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var cursor map[string]types.AttributeValue
	for {
		res, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:                 &s.table,
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(!opts.Descending),
			ExclusiveStartKey:         cursor,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		items = append(items, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		// DynamoDB applies Limit before the filter, so the cap is
		// enforced here instead.
		if opts.Limit > 0 && len(items) >= opts.Limit {
			break
		}
		cursor = res.LastEvaluatedKey
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal query result: %w", err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, filter map[string]any, out any) error {
	b := expression.NewBuilder()
	if len(filter) > 0 {
		b = b.WithFilter(filterCondition(filter))
	}
	expr, err := b.Build()
	if err != nil {
		return fmt.Errorf("build scan expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var cursor map[string]types.AttributeValue
	for {
		res, err := s.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 &s.table,
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         cursor,
		})
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		items = append(items, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		cursor = res.LastEvaluatedKey
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal scan result: %w", err)
	}
	return nil
}

func sortKeyCondition(sc keyval.SortCondition) (expression.KeyConditionBuilder, error) {
	op, lo, hi := sc.Condition()
	sk := expression.Key(sortKeyName)
	switch op {
	case keyval.SortEquals:
		return expression.KeyEqual(sk, expression.Value(lo)), nil
	case keyval.SortBeginsWith:
		return expression.KeyBeginsWith(sk, lo), nil
	case keyval.SortBetween:
		return expression.KeyBetween(sk, expression.Value(lo), expression.Value(hi)), nil
	case keyval.SortLessThan:
		return expression.KeyLessThan(sk, expression.Value(lo)), nil
	case keyval.SortGreater:
		return expression.KeyGreaterThan(sk, expression.Value(lo)), nil
	default:
		return expression.KeyConditionBuilder{}, fmt.Errorf("unknown sort condition op %q", op)
	}
}

func filterCondition(filter map[string]any) expression.ConditionBuilder {
	var cond expression.ConditionBuilder
	for name, value := range filter {
		eq := expression.Equal(expression.Name(name), expression.Value(value))
		if cond.IsSet() {
			cond = cond.And(eq)
		} else {
			cond = eq
		}
	}
	return cond
}
