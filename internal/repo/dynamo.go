package repo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"launchline/internal/domain"
	"launchline/internal/obs"
)

const snapshotKey = "snapshot"

// DynamoAPI is the subset of *dynamodb.Client the snapshot store needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type snapshotItem struct {
	PK        string `dynamodbav:"pk"`
	Version   int64  `dynamodbav:"version"`
	Payload   string `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoStore keeps the snapshot as one item keyed pk="snapshot" and relies on
// a conditional put for the version check.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) key() map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		"pk": &dynamodbtypes.AttributeValueMemberS{Value: snapshotKey},
	}
}

func (s *DynamoStore) Load(ctx context.Context) (_ Snapshot, err error) {
	defer obs.Time(ctx, "repo.dynamodb.Load")(&err)

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Snapshot{}, storageErr("load", err)
	}
	if len(out.Item) == 0 {
		return Snapshot{Version: 0, Launches: []domain.Launch{}}, nil
	}
	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Snapshot{}, storageErr("load", err)
	}
	launches, err := decodePayload([]byte(item.Payload))
	if err != nil {
		return Snapshot{}, storageErr("load", err)
	}
	return Snapshot{Version: item.Version, Launches: launches}, nil
}

func (s *DynamoStore) List(ctx context.Context) ([]domain.Launch, error) {
	return listFrom(ctx, s)
}

func (s *DynamoStore) GetByID(ctx context.Context, id string) (domain.Launch, error) {
	return getFrom(ctx, s, id)
}

func (s *DynamoStore) SaveAll(ctx context.Context, expectedVersion int64, launches []domain.Launch) (_ int64, err error) {
	defer obs.Time(ctx, "repo.dynamodb.SaveAll")(&err)

	data, err := encodePayload(launches)
	if err != nil {
		return 0, storageErr("encode", err)
	}
	next := expectedVersion + 1
	item, err := attributevalue.MarshalMap(snapshotItem{
		PK:        snapshotKey,
		Version:   next,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, storageErr("encode", err)
	}
	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if expectedVersion == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(pk)")
	} else {
		in.ConditionExpression = aws.String("version = :expected")
		in.ExpressionAttributeValues = map[string]dynamodbtypes.AttributeValue{
			":expected": &dynamodbtypes.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}
	if _, err := s.client.PutItem(ctx, in); err != nil {
		var ccf *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, ErrVersionConflict
		}
		return 0, storageErr("save", err)
	}
	return next, nil
}
