// Package dynamodb stores links in a DynamoDB table keyed by short_id. The
// table's TTL attribute is expires_at; since TTL deletion lags, reads also
// compare expires_at with the current time.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// createdAtLayout is the created_at format of existing tables.
const createdAtLayout = "2006-01-02T15:04:05"

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type linkItem struct {
	ShortID   string            `dynamodbav:"short_id"`
	CreatedAt string            `dynamodbav:"created_at"`
	ExpiresAt int64             `dynamodbav:"expires_at"`
	ShortURL  string            `dynamodbav:"short_url"`
	OwnerID   string            `dynamodbav:"user_id"`
	LongURL   string            `dynamodbav:"long_url"`
	Analytics map[string]string `dynamodbav:"analytics"`
	HitCount  int64             `dynamodbav:"hits"`
}

func toItem(link *entity.ShortLink) linkItem {
	analytics := link.Analytics
	if analytics == nil {
		analytics = map[string]string{}
	}

	return linkItem{
		ShortID:   link.ShortID,
		CreatedAt: link.CreatedAt.UTC().Format(createdAtLayout),
		ExpiresAt: link.ExpiresAt,
		ShortURL:  link.ShortURL,
		OwnerID:   link.OwnerID,
		LongURL:   link.LongURL,
		Analytics: analytics,
		HitCount:  link.HitCount,
	}
}

func (i *linkItem) toEntity() (*entity.ShortLink, error) {
	createdAt, err := time.ParseInLocation(createdAtLayout, i.CreatedAt, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &entity.ShortLink{
		ShortID:   i.ShortID,
		LongURL:   i.LongURL,
		ShortURL:  i.ShortURL,
		OwnerID:   i.OwnerID,
		CreatedAt: createdAt,
		ExpiresAt: i.ExpiresAt,
		HitCount:  i.HitCount,
		Analytics: i.Analytics,
	}, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

type LinkRepository struct {
	client dynamoAPI
	table  string
	now    func() time.Time
}

// NewLinkRepository returns a repository over the given table.
func NewLinkRepository(client dynamoAPI, table string) *LinkRepository {
	return &LinkRepository{
		client: client,
		table:  table,
		now:    time.Now,
	}
}

func key(shortID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"short_id": &types.AttributeValueMemberS{Value: shortID},
	}
}

func number(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// Exists uses a strongly consistent read so a link written moments ago is
// never reported absent.
func (r *LinkRepository) Exists(ctx context.Context, shortID string) (bool, error) {
	const op = "adapter.repository.dynamodb.LinkRepository.Exists"

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.table),
		Key:                  key(shortID),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("short_id, expires_at"),
	})
	if err != nil {
		return false, fmt.Errorf("%s: failed to get item: %w", op, err)
	}

	if out.Item == nil {
		return false, nil
	}

	var item linkItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("%s: failed to unmarshal item: %w", op, err)
	}

	return item.ExpiresAt > r.now().Unix(), nil
}

func (r *LinkRepository) Get(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.dynamodb.LinkRepository.Get"

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key(shortID),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get item: %w", op, err)
	}

	if out.Item == nil {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	var item linkItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal item: %w", op, err)
	}

	if item.ExpiresAt <= r.now().Unix() {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link, err := item.toEntity()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

// Save puts link only if its short ID is unused or held by an expired item.
func (r *LinkRepository) Save(ctx context.Context, link *entity.ShortLink) error {
	const op = "adapter.repository.dynamodb.LinkRepository.Save"

	item, err := attributevalue.MarshalMap(toItem(link))
	if err != nil {
		return fmt.Errorf("%s: failed to marshal item: %w", op, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(short_id) OR expires_at <= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": number(r.now().Unix()),
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
		}

		return fmt.Errorf("%s: failed to put item: %w", op, err)
	}

	return nil
}

func (r *LinkRepository) IncrementHits(ctx context.Context, shortID string) error {
	const op = "adapter.repository.dynamodb.LinkRepository.IncrementHits"

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 key(shortID),
		UpdateExpression:    aws.String("ADD hits :one"),
		ConditionExpression: aws.String("attribute_exists(short_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": number(1),
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return fmt.Errorf("%s: failed to update item: %w", op, err)
	}

	return nil
}
