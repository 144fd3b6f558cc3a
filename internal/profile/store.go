package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// ErrProfileNotFound indicates no profile exists for the user yet.
var ErrProfileNotFound = errors.New("profile: not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Record is a student's profile. The caretaker contact drives high-risk
// alert dispatch; everything else is display and prompt context.
type Record struct {
	UserID         string `dynamodbav:"userId" json:"userId"`
	DisplayName    string `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	Role           string `dynamodbav:"role,omitempty" json:"role,omitempty"`
	Institution    string `dynamodbav:"institution,omitempty" json:"institution,omitempty"`
	CaretakerName  string `dynamodbav:"caretakerName,omitempty" json:"caretakerName,omitempty"`
	CaretakerEmail string `dynamodbav:"caretakerEmail,omitempty" json:"caretakerEmail,omitempty"`
	CaretakerPhone string `dynamodbav:"caretakerPhone,omitempty" json:"caretakerPhone,omitempty"`
	Language       string `dynamodbav:"language,omitempty" json:"language,omitempty"`
	UpdatedAt      string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Store persists profiles in DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("profile: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("profile: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, tableName: tableName, logger: logger}
}

// Put writes the full profile for a user.
func (s *Store) Put(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("profile: record cannot be nil")
	}
	if record.UserID == "" {
		return errors.New("profile: userID required")
	}
	record.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("profile: failed to marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("profile: failed to persist record: %w", err)
	}
	return nil
}

// Get fetches a user's profile.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, errors.New("profile: userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("profile: failed to fetch record: %w", err)
	}
	if out.Item == nil {
		return nil, ErrProfileNotFound
	}
	var record Record
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("profile: failed to decode record: %w", err)
	}
	return &record, nil
}

// Caretaker returns the caretaker contact for the therapy pipeline. A
// missing profile is not an error; it means no alert can be dispatched.
func (s *Store) Caretaker(ctx context.Context, userID string) (*therapy.CaretakerProfile, error) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &therapy.CaretakerProfile{
		CaretakerEmail: record.CaretakerEmail,
		CaretakerName:  record.CaretakerName,
	}, nil
}
