package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

const (
	// KeyAttr is the partition key attribute of the content table.
	KeyAttr = "id"

	backendName = "dynamodb"
)

// API is the subset of the DynamoDB client used by [Repository].
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Repository implements sitecontent.Repository on a DynamoDB table.
//
// Use [New] to create a Repository and [Repository.Init] to validate the
// table before serving traffic.
type Repository struct {
	client    API
	tableName string
	opts      *Options
}

// New creates a Repository for tableName. The client is built from awsCfg
// unless [WithAPI] supplies one.
func New(awsCfg *aws.Config, tableName string, opts ...Option) (*Repository, error) {
	options := newOptions()
	for _, o := range opts {
		o(options)
	}

	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	client := options.api
	if client == nil {
		if awsCfg == nil {
			return nil, errors.New("aws config is required when no API is provided")
		}
		client = dynamodb.NewFromConfig(*awsCfg)
	}

	return &Repository{
		client:    client,
		tableName: tableName,
		opts:      options,
	}, nil
}

// Init checks that the table exists, is active and is keyed by a string
// partition key named id.
func (r *Repository) Init(ctx context.Context) error {
	response, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", r.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", r.tableName, err)
	}

	table := response.Table
	if table == nil {
		return fmt.Errorf("table %s has no description", r.tableName)
	}
	if table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is %s, expected %s", r.tableName, table.TableStatus, dynamodbtypes.TableStatusActive)
	}

	var hashKey string
	for _, k := range table.KeySchema {
		if k.KeyType == dynamodbtypes.KeyTypeHash {
			hashKey = aws.ToString(k.AttributeName)
		}
	}
	if hashKey != KeyAttr {
		return fmt.Errorf("table %s must have partition key %q, found %q", r.tableName, KeyAttr, hashKey)
	}
	if len(table.KeySchema) > 1 {
		return fmt.Errorf("table %s must not have a sort key", r.tableName)
	}

	for _, def := range table.AttributeDefinitions {
		if aws.ToString(def.AttributeName) == KeyAttr && def.AttributeType != dynamodbtypes.ScalarAttributeTypeS {
			return fmt.Errorf("table %s partition key %q must be a string", r.tableName, KeyAttr)
		}
	}

	return nil
}

func (r *Repository) PutIfAbsent(ctx context.Context, item *sitecontent.Item) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(KeyAttr).AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("%w: %s", sitecontent.ErrDuplicateKey, item.ID)
		}
		return r.storageError("put", item.ID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*sitecontent.Item, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(r.opts.consistentRead),
	})
	if err != nil {
		return nil, r.storageError("get", id, err)
	}
	if len(out.Item) == 0 {
		return nil, sitecontent.ErrNotFound
	}
	return unmarshalItem(out.Item)
}

func (r *Repository) Scan(ctx context.Context, filter sitecontent.Filter) ([]*sitecontent.Item, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(r.opts.consistentRead),
	}

	if cond, ok := filterCondition(filter); ok {
		expr, err := expression.NewBuilder().WithFilter(cond).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items := make([]*sitecontent.Item, 0)
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, r.storageError("scan", "", err)
		}
		for _, av := range page.Items {
			item, err := unmarshalItem(av)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	r.opts.logger.Debug("scan complete",
		zap.String("table", r.tableName),
		zap.Int("predicates", len(filter.Predicates())),
		zap.Int("count", len(items)))

	return items, nil
}

func (r *Repository) Update(ctx context.Context, id string, set sitecontent.Assignments) (*sitecontent.Item, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return r.Get(ctx, id)
	}

	var update expression.UpdateBuilder
	for _, a := range set.Items() {
		if a.Value == nil {
			update = update.Remove(expression.Name(a.Field.Name()))
			continue
		}
		update = update.Set(expression.Name(a.Field.Name()), expression.Value(a.Value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name(KeyAttr).AttributeExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       itemKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              dynamodbtypes.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, sitecontent.ErrNotFound
		}
		return nil, r.storageError("update", id, err)
	}
	return unmarshalItem(out.Attributes)
}

func (r *Repository) Delete(ctx context.Context, id string) (*sitecontent.Item, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          itemKey(id),
		ReturnValues: dynamodbtypes.ReturnValueAllOld,
	})
	if err != nil {
		return nil, r.storageError("delete", id, err)
	}
	if len(out.Attributes) == 0 {
		return nil, sitecontent.ErrNotFound
	}
	return unmarshalItem(out.Attributes)
}

// filterCondition turns a Filter into a conjunction of equality conditions.
func filterCondition(filter sitecontent.Filter) (expression.ConditionBuilder, bool) {
	preds := filter.Predicates()
	if len(preds) == 0 {
		return expression.ConditionBuilder{}, false
	}

	cond := expression.Name(preds[0].Field.Name()).Equal(expression.Value(preds[0].Value))
	for _, p := range preds[1:] {
		cond = cond.And(expression.Name(p.Field.Name()).Equal(expression.Value(p.Value)))
	}
	return cond, true
}

func itemKey(id string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		KeyAttr: &dynamodbtypes.AttributeValueMemberS{Value: id},
	}
}

func unmarshalItem(av map[string]dynamodbtypes.AttributeValue) (*sitecontent.Item, error) {
	var item sitecontent.Item
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *dynamodbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// storageError wraps a request failure, keeping the service error code when
// the SDK reports one.
func (r *Repository) storageError(op, key string, err error) error {
	code := ""
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
		err = fmt.Errorf("%s: %w", code, err)
	}

	r.opts.logger.Error("dynamodb request failed",
		zap.String("table", r.tableName),
		zap.String("op", op),
		zap.String("key", key),
		zap.String("code", code),
		zap.Error(err))

	return &sitecontent.StorageError{Backend: backendName, Op: op, Key: key, Err: err}
}
