package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// TurnRecord is one persisted chat turn. Turns are append-only; a user's
// partition holds their full transcript in time order.
type TurnRecord struct {
	PK        string `dynamodbav:"pk" json:"-"`
	SK        string `dynamodbav:"sk" json:"-"`
	TurnID    string `dynamodbav:"turnId" json:"turnId"`
	UserID    string `dynamodbav:"userId" json:"-"`
	Role      string `dynamodbav:"role" json:"role"`
	Content   string `dynamodbav:"content" json:"content"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// TurnStore persists chat transcripts in DynamoDB.
type TurnStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewTurnStore builds a store backed by the provided DynamoDB client.
func NewTurnStore(client dynamoAPI, tableName string, logger *logging.Logger) *TurnStore {
	if client == nil {
		panic("chat: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("chat: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TurnStore{client: client, tableName: tableName, logger: logger}
}

func userPK(userID string) string { return "USER#" + userID }

// AppendTurns persists turns in the order given. Timestamps are assigned
// here so a user/bot pair written together sorts correctly.
func (s *TurnStore) AppendTurns(ctx context.Context, userID string, turns []therapy.Turn) error {
	if userID == "" {
		return errors.New("chat: userID required")
	}
	base := time.Now().UTC()
	for i, turn := range turns {
		record := TurnRecord{
			TurnID:    uuid.NewString(),
			UserID:    userID,
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond).Format(time.RFC3339Nano),
		}
		record.PK = userPK(userID)
		record.SK = fmt.Sprintf("TURN#%s#%s", record.CreatedAt, record.TurnID)

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("chat: failed to marshal turn: %w", err)
		}
		if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("chat: failed to persist turn: %w", err)
		}
	}
	return nil
}

// RecentTurns returns the user's last N turns in chronological order.
func (s *TurnStore) RecentTurns(ctx context.Context, userID string, limit int) ([]therapy.Turn, error) {
	if userID == "" {
		return nil, errors.New("chat: userID required")
	}
	if limit <= 0 {
		limit = 20
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: "TURN#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("chat: failed to load turns: %w", err)
	}
	var records []TurnRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("chat: failed to decode turns: %w", err)
	}

	// The query runs newest-first; callers want transcript order.
	turns := make([]therapy.Turn, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		turns = append(turns, therapy.Turn{Role: records[i].Role, Content: records[i].Content})
	}
	return turns, nil
}
