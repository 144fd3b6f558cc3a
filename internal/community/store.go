package community

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// postsByCreatedAtIndex is the GSI that orders all posts by creation time.
const postsByCreatedAtIndex = "postsByCreatedAt"

// ErrPostNotFound indicates the requested post ID does not exist.
var ErrPostNotFound = errors.New("community: post not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// PostRecord is a published community post.
type PostRecord struct {
	PK          string `dynamodbav:"pk" json:"-"`
	SK          string `dynamodbav:"sk" json:"-"`
	GSI1PK      string `dynamodbav:"gsi1pk" json:"-"`
	PostID      string `dynamodbav:"postId" json:"postId"`
	AuthorAlias string `dynamodbav:"authorAlias" json:"authorAlias"`
	Title       string `dynamodbav:"title" json:"title"`
	Content     string `dynamodbav:"content" json:"content"`
	ReplyCount  int    `dynamodbav:"replyCount" json:"replyCount"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// ReplyRecord is a published reply on a post.
type ReplyRecord struct {
	PK          string `dynamodbav:"pk" json:"-"`
	SK          string `dynamodbav:"sk" json:"-"`
	ReplyID     string `dynamodbav:"replyId" json:"replyId"`
	PostID      string `dynamodbav:"postId" json:"postId"`
	AuthorAlias string `dynamodbav:"authorAlias" json:"authorAlias"`
	Content     string `dynamodbav:"content" json:"content"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// Store persists posts and replies in a single DynamoDB table. A post lives
// under pk POST#<id> with sk META; its replies share the partition with sk
// REPLY#<createdAt>#<id> so one Query returns them in order.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("community: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("community: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, tableName: tableName, logger: logger}
}

func postPK(postID string) string { return "POST#" + postID }

// CreatePost inserts a new post record.
func (s *Store) CreatePost(ctx context.Context, post *PostRecord) error {
	if post == nil {
		return errors.New("community: post cannot be nil")
	}
	if post.CreatedAt == "" {
		post.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	post.PK = postPK(post.PostID)
	post.SK = "META"
	post.GSI1PK = "POST"

	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		return fmt.Errorf("community: failed to marshal post: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		return fmt.Errorf("community: failed to persist post: %w", err)
	}
	return nil
}

// GetPost fetches a single post by ID.
func (s *Store) GetPost(ctx context.Context, postID string) (*PostRecord, error) {
	if postID == "" {
		return nil, errors.New("community: postID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: postPK(postID)},
			"sk": &types.AttributeValueMemberS{Value: "META"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("community: failed to fetch post: %w", err)
	}
	if out.Item == nil {
		return nil, ErrPostNotFound
	}
	var post PostRecord
	if err := attributevalue.UnmarshalMap(out.Item, &post); err != nil {
		return nil, fmt.Errorf("community: failed to decode post: %w", err)
	}
	return &post, nil
}

// ListPosts returns posts in reverse chronological order.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(postsByCreatedAtIndex),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "POST"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("community: failed to list posts: %w", err)
	}
	var posts []PostRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &posts); err != nil {
		return nil, fmt.Errorf("community: failed to decode posts: %w", err)
	}
	return posts, nil
}

// CreateReply inserts a reply and bumps the parent post's reply counter.
func (s *Store) CreateReply(ctx context.Context, reply *ReplyRecord) error {
	if reply == nil {
		return errors.New("community: reply cannot be nil")
	}
	if reply.PostID == "" {
		return errors.New("community: reply postID required")
	}
	if reply.CreatedAt == "" {
		reply.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	reply.PK = postPK(reply.PostID)
	reply.SK = fmt.Sprintf("REPLY#%s#%s", reply.CreatedAt, reply.ReplyID)

	item, err := attributevalue.MarshalMap(reply)
	if err != nil {
		return fmt.Errorf("community: failed to marshal reply: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sk)"),
	})
	if err != nil {
		return fmt.Errorf("community: failed to persist reply: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: postPK(reply.PostID)},
			"sk": &types.AttributeValueMemberS{Value: "META"},
		},
		UpdateExpression:    aws.String("ADD replyCount :one"),
		ConditionExpression: aws.String("attribute_exists(pk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		// The reply is already durable; the counter is advisory.
		s.logger.Warn("failed to increment reply count", "post_id", reply.PostID, "error", err)
	}
	return nil
}

// ListReplies returns a post's replies in chronological order.
func (s *Store) ListReplies(ctx context.Context, postID string) ([]ReplyRecord, error) {
	if postID == "" {
		return nil, errors.New("community: postID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: postPK(postID)},
			":prefix": &types.AttributeValueMemberS{Value: "REPLY#"},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("community: failed to list replies: %w", err)
	}
	var replies []ReplyRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &replies); err != nil {
		return nil, fmt.Errorf("community: failed to decode replies: %w", err)
	}
	return replies, nil
}
