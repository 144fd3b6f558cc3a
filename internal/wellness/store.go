package wellness

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

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// MoodLog is one self-reported mood with its 0-100 score.
type MoodLog struct {
	PK        string `dynamodbav:"pk" json:"-"`
	SK        string `dynamodbav:"sk" json:"-"`
	Mood      string `dynamodbav:"mood" json:"mood"`
	Score     int    `dynamodbav:"score" json:"score"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// VitalsLog is one wearable reading.
type VitalsLog struct {
	PK        string `dynamodbav:"pk" json:"-"`
	SK        string `dynamodbav:"sk" json:"-"`
	BP        string `dynamodbav:"bp" json:"bp"`
	Stress    int    `dynamodbav:"stress" json:"stress"`
	SpO2      int    `dynamodbav:"spo2" json:"spo2"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// CycleLog is one menstrual cycle day entry.
type CycleLog struct {
	PK         string `dynamodbav:"pk" json:"-"`
	SK         string `dynamodbav:"sk" json:"-"`
	DayOfCycle int    `dynamodbav:"dayOfCycle" json:"dayOfCycle"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
}

// FoodLog is one food diary entry.
type FoodLog struct {
	PK        string `dynamodbav:"pk" json:"-"`
	SK        string `dynamodbav:"sk" json:"-"`
	Entry     string `dynamodbav:"entry" json:"entry"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// SleepSchedule is the user's typical sleep window. One per user, replaced
// on update.
type SleepSchedule struct {
	PK           string `dynamodbav:"pk" json:"-"`
	SK           string `dynamodbav:"sk" json:"-"`
	WeekdayWake  string `dynamodbav:"weekdayWake" json:"weekdayWake"`
	WeekdaySleep string `dynamodbav:"weekdaySleep" json:"weekdaySleep"`
	WeekendWake  string `dynamodbav:"weekendWake" json:"weekendWake"`
	WeekendSleep string `dynamodbav:"weekendSleep" json:"weekendSleep"`
	UpdatedAt    string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// ErrNoSleepSchedule indicates the user has not saved a sleep schedule.
var ErrNoSleepSchedule = errors.New("wellness: no sleep schedule")

const (
	skMood          = "MOOD#"
	skVitals        = "VITALS#"
	skCycle         = "CYCLE#"
	skFood          = "FOOD#"
	skSleepSchedule = "SLEEP_SCHEDULE"
)

// Store persists wellness logs in a single DynamoDB table. Each log kind
// shares the user partition under its own sort-key prefix, so time-window
// queries are a single key condition.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("wellness: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("wellness: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, tableName: tableName, logger: logger}
}

func userPK(userID string) string { return "USER#" + userID }

func (s *Store) putLog(ctx context.Context, record any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("wellness: failed to marshal log: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("wellness: failed to persist log: %w", err)
	}
	return nil
}

func (s *Store) queryWindow(ctx context.Context, userID, prefix string, since time.Time) (*dynamodb.QueryOutput, error) {
	if userID == "" {
		return nil, errors.New("wellness: userID required")
	}
	from := prefix + since.UTC().Format(time.RFC3339Nano)
	to := prefix + "9" // RFC3339 timestamps start with a digit below 9
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND sk BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: userPK(userID)},
			":from": &types.AttributeValueMemberS{Value: from},
			":to":   &types.AttributeValueMemberS{Value: to},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("wellness: failed to query logs: %w", err)
	}
	return out, nil
}

// LogMood records a mood with its score.
func (s *Store) LogMood(ctx context.Context, userID string, log *MoodLog) error {
	if userID == "" {
		return errors.New("wellness: userID required")
	}
	if log == nil {
		return errors.New("wellness: log cannot be nil")
	}
	if log.CreatedAt == "" {
		log.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	log.PK = userPK(userID)
	log.SK = skMood + log.CreatedAt
	return s.putLog(ctx, log)
}

// MoodsSince returns moods logged after the given time, oldest first.
func (s *Store) MoodsSince(ctx context.Context, userID string, since time.Time) ([]MoodLog, error) {
	out, err := s.queryWindow(ctx, userID, skMood, since)
	if err != nil {
		return nil, err
	}
	var logs []MoodLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, fmt.Errorf("wellness: failed to decode moods: %w", err)
	}
	return logs, nil
}

// LogVitals records a wearable reading.
func (s *Store) LogVitals(ctx context.Context, userID string, log *VitalsLog) error {
	if userID == "" {
		return errors.New("wellness: userID required")
	}
	if log == nil {
		return errors.New("wellness: log cannot be nil")
	}
	if log.CreatedAt == "" {
		log.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	log.PK = userPK(userID)
	log.SK = skVitals + log.CreatedAt
	return s.putLog(ctx, log)
}

// TodayVitals returns the latest reading from today as prompt context, or
// nil when nothing was logged yet.
func (s *Store) TodayVitals(ctx context.Context, userID string) (*therapy.VitalsContext, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out, err := s.queryWindow(ctx, userID, skVitals, midnight)
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var log VitalsLog
	if err := attributevalue.UnmarshalMap(out.Items[len(out.Items)-1], &log); err != nil {
		return nil, fmt.Errorf("wellness: failed to decode vitals: %w", err)
	}
	return &therapy.VitalsContext{BP: log.BP, Stress: log.Stress, SpO2: log.SpO2}, nil
}

// LogCycle records a cycle day entry.
func (s *Store) LogCycle(ctx context.Context, userID string, log *CycleLog) error {
	if userID == "" {
		return errors.New("wellness: userID required")
	}
	if log == nil {
		return errors.New("wellness: log cannot be nil")
	}
	if log.CreatedAt == "" {
		log.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	log.PK = userPK(userID)
	log.SK = skCycle + log.CreatedAt
	return s.putLog(ctx, log)
}

// CyclesSince returns cycle entries after the given time, oldest first.
func (s *Store) CyclesSince(ctx context.Context, userID string, since time.Time) ([]CycleLog, error) {
	out, err := s.queryWindow(ctx, userID, skCycle, since)
	if err != nil {
		return nil, err
	}
	var logs []CycleLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, fmt.Errorf("wellness: failed to decode cycle logs: %w", err)
	}
	return logs, nil
}

// LogFood records a food diary entry.
func (s *Store) LogFood(ctx context.Context, userID string, log *FoodLog) error {
	if userID == "" {
		return errors.New("wellness: userID required")
	}
	if log == nil {
		return errors.New("wellness: log cannot be nil")
	}
	if log.CreatedAt == "" {
		log.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	log.PK = userPK(userID)
	log.SK = skFood + log.CreatedAt
	return s.putLog(ctx, log)
}

// FoodSince returns food diary entries after the given time, oldest first.
func (s *Store) FoodSince(ctx context.Context, userID string, since time.Time) ([]FoodLog, error) {
	out, err := s.queryWindow(ctx, userID, skFood, since)
	if err != nil {
		return nil, err
	}
	var logs []FoodLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, fmt.Errorf("wellness: failed to decode food logs: %w", err)
	}
	return logs, nil
}

// SaveSleepSchedule replaces the user's sleep schedule.
func (s *Store) SaveSleepSchedule(ctx context.Context, userID string, schedule *SleepSchedule) error {
	if userID == "" {
		return errors.New("wellness: userID required")
	}
	if schedule == nil {
		return errors.New("wellness: schedule cannot be nil")
	}
	schedule.PK = userPK(userID)
	schedule.SK = skSleepSchedule
	schedule.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return s.putLog(ctx, schedule)
}

// SleepScheduleFor fetches the user's sleep schedule.
func (s *Store) SleepScheduleFor(ctx context.Context, userID string) (*SleepSchedule, error) {
	if userID == "" {
		return nil, errors.New("wellness: userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: userPK(userID)},
			"sk": &types.AttributeValueMemberS{Value: skSleepSchedule},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wellness: failed to fetch sleep schedule: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNoSleepSchedule
	}
	var schedule SleepSchedule
	if err := attributevalue.UnmarshalMap(out.Item, &schedule); err != nil {
		return nil, fmt.Errorf("wellness: failed to decode sleep schedule: %w", err)
	}
	return &schedule, nil
}
