package community

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

type mockDynamo struct {
	putInputs    []*dynamodb.PutItemInput
	updateInputs []*dynamodb.UpdateItemInput
	queryInputs  []*dynamodb.QueryInput
	getInput     *dynamodb.GetItemInput

	putErr    error
	updateErr error
	getOutput *dynamodb.GetItemOutput
	getErr    error
	queryOut  *dynamodb.QueryOutput
	queryErr  error
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, in)
	return &dynamodb.PutItemOutput{}, m.putErr
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, in)
	return &dynamodb.UpdateItemOutput{}, m.updateErr
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = in
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, m.getErr
	}
	return m.getOutput, m.getErr
}

func (m *mockDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInputs = append(m.queryInputs, in)
	if m.queryOut == nil {
		return &dynamodb.QueryOutput{}, m.queryErr
	}
	return m.queryOut, m.queryErr
}

func TestStore_CreatePostSetsKeysAndTimestamp(t *testing.T) {
	mock := &mockDynamo{}
	store := NewStore(mock, "juvo_community", logging.Default())

	post := &PostRecord{PostID: "p-1", AuthorAlias: "anonymous_abc12", Title: "Exam stress", Content: "Finals are crushing me."}
	if err := store.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	if len(mock.putInputs) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(mock.putInputs))
	}
	var stored PostRecord
	if err := attributevalue.UnmarshalMap(mock.putInputs[0].Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored post: %v", err)
	}
	if stored.PK != "POST#p-1" || stored.SK != "META" {
		t.Errorf("unexpected keys: %s / %s", stored.PK, stored.SK)
	}
	if stored.GSI1PK != "POST" {
		t.Errorf("post must be on the listing index, got %q", stored.GSI1PK)
	}
	if stored.CreatedAt == "" {
		t.Error("expected timestamp to be populated")
	}
	if expr := mock.putInputs[0].ConditionExpression; expr == nil || *expr != "attribute_not_exists(pk)" {
		t.Errorf("expected overwrite guard, got %v", expr)
	}
}

func TestStore_GetPostNotFound(t *testing.T) {
	store := NewStore(&mockDynamo{}, "juvo_community", logging.Default())
	if _, err := store.GetPost(context.Background(), "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestStore_ListPostsQueriesIndexNewestFirst(t *testing.T) {
	item, _ := attributevalue.MarshalMap(PostRecord{PostID: "p-1", Title: "t1", Content: "c1"})
	mock := &mockDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}}
	store := NewStore(mock, "juvo_community", logging.Default())

	posts, err := store.ListPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].PostID != "p-1" {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	q := mock.queryInputs[0]
	if q.IndexName == nil || *q.IndexName != postsByCreatedAtIndex {
		t.Errorf("expected query on listing index, got %v", q.IndexName)
	}
	if q.ScanIndexForward == nil || *q.ScanIndexForward {
		t.Error("posts must come back newest first")
	}
}

func TestStore_CreateReplyBumpsCounter(t *testing.T) {
	mock := &mockDynamo{}
	store := NewStore(mock, "juvo_community", logging.Default())

	reply := &ReplyRecord{ReplyID: "r-1", PostID: "p-1", AuthorAlias: "anonymous_xyz99", Content: "you're not alone"}
	if err := store.CreateReply(context.Background(), reply); err != nil {
		t.Fatalf("CreateReply returned error: %v", err)
	}

	if len(mock.putInputs) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(mock.putInputs))
	}
	var stored ReplyRecord
	if err := attributevalue.UnmarshalMap(mock.putInputs[0].Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored reply: %v", err)
	}
	if stored.PK != "POST#p-1" {
		t.Errorf("reply must share the post partition, got %q", stored.PK)
	}

	if len(mock.updateInputs) != 1 {
		t.Fatalf("expected counter update, got %d calls", len(mock.updateInputs))
	}
	update := mock.updateInputs[0]
	if *update.UpdateExpression != "ADD replyCount :one" {
		t.Errorf("unexpected update expression: %s", *update.UpdateExpression)
	}
}

func TestStore_CreateReplyCounterFailureIsNonFatal(t *testing.T) {
	mock := &mockDynamo{updateErr: errors.New("throttled")}
	store := NewStore(mock, "juvo_community", logging.Default())

	reply := &ReplyRecord{ReplyID: "r-1", PostID: "p-1", Content: "hang in there"}
	if err := store.CreateReply(context.Background(), reply); err != nil {
		t.Fatalf("counter failure should not fail the reply, got %v", err)
	}
}

func TestStore_ListRepliesChronological(t *testing.T) {
	mock := &mockDynamo{}
	store := NewStore(mock, "juvo_community", logging.Default())

	if _, err := store.ListReplies(context.Background(), "p-1"); err != nil {
		t.Fatalf("ListReplies returned error: %v", err)
	}
	q := mock.queryInputs[0]
	if q.ScanIndexForward == nil || !*q.ScanIndexForward {
		t.Error("replies must come back oldest first")
	}
	prefix := q.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value
	if prefix != "REPLY#" {
		t.Errorf("expected reply prefix condition, got %q", prefix)
	}
}
