package community

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/iterworks/juvo-backend/internal/moderation"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// fakeModerator returns canned verdicts and records what it saw.
type fakeModerator struct {
	postVerdict  moderation.Verdict
	replyVerdict moderation.Verdict
	postCalls    int
	replyCalls   int
}

func (f *fakeModerator) ReviewPost(ctx context.Context, post moderation.PostInput) moderation.Verdict {
	f.postCalls++
	return f.postVerdict
}

func (f *fakeModerator) ReviewReply(ctx context.Context, reply moderation.ReplyInput) moderation.Verdict {
	f.replyCalls++
	return f.replyVerdict
}

func existingPost(t *testing.T, postID string) *dynamodb.GetItemOutput {
	t.Helper()
	item, err := attributevalue.MarshalMap(PostRecord{PostID: postID, Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("marshal post: %v", err)
	}
	return &dynamodb.GetItemOutput{Item: item}
}

func TestCreatePost_ApprovedIsPersistedAnonymously(t *testing.T) {
	mock := &mockDynamo{}
	mod := &fakeModerator{postVerdict: moderation.Verdict{Approved: true}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	post, err := svc.CreatePost(context.Background(), "user-12345-abcdef", moderation.PostInput{
		Title:   "Overwhelmed lately",
		Content: "I can't keep up with everything on my plate.",
	})
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if post.AuthorAlias != "anonymous_user-" {
		t.Errorf("author must be anonymized, got %q", post.AuthorAlias)
	}
	if post.PostID == "" {
		t.Error("expected generated post ID")
	}
	if len(mock.putInputs) != 1 {
		t.Errorf("expected persistence, got %d puts", len(mock.putInputs))
	}
	if mod.postCalls != 1 {
		t.Errorf("expected 1 moderation call, got %d", mod.postCalls)
	}
}

func TestCreatePost_RejectedIsNotPersisted(t *testing.T) {
	mock := &mockDynamo{}
	mod := &fakeModerator{postVerdict: moderation.Verdict{Approved: false, Reason: "This post does not seem to be about a mental health topic."}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	_, err := svc.CreatePost(context.Background(), "user-1", moderation.PostInput{
		Title:   "Bike for sale",
		Content: "Selling my old bike, DM me for details.",
	})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if !strings.Contains(rejected.Reason, "mental health") {
		t.Errorf("unexpected reason: %q", rejected.Reason)
	}
	if len(mock.putInputs) != 0 {
		t.Fatalf("rejected content must not be persisted, got %d puts", len(mock.putInputs))
	}
}

func TestCreatePost_InvalidInputSkipsModeration(t *testing.T) {
	mock := &mockDynamo{}
	mod := &fakeModerator{postVerdict: moderation.Verdict{Approved: true}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	_, err := svc.CreatePost(context.Background(), "user-1", moderation.PostInput{Title: "Hi", Content: "short"})
	var verr *moderation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if mod.postCalls != 0 {
		t.Error("invalid input must not reach the moderator")
	}
	if len(mock.putInputs) != 0 {
		t.Error("invalid input must not be persisted")
	}
}

func TestCreateReply_ApprovedOnExistingPost(t *testing.T) {
	mock := &mockDynamo{getOutput: existingPost(t, "p-1")}
	mod := &fakeModerator{replyVerdict: moderation.Verdict{Approved: true}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	reply, err := svc.CreateReply(context.Background(), "abcdefgh", "p-1", moderation.ReplyInput{
		Content: "you should better manage time and work",
	})
	if err != nil {
		t.Fatalf("CreateReply returned error: %v", err)
	}
	if reply.AuthorAlias != "anonymous_abcde" {
		t.Errorf("author must be anonymized, got %q", reply.AuthorAlias)
	}
	if len(mock.putInputs) != 1 {
		t.Errorf("expected persistence, got %d puts", len(mock.putInputs))
	}
}

func TestCreateReply_MissingPost(t *testing.T) {
	mock := &mockDynamo{}
	mod := &fakeModerator{replyVerdict: moderation.Verdict{Approved: true}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	_, err := svc.CreateReply(context.Background(), "user-1", "missing", moderation.ReplyInput{Content: "hello"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if mod.replyCalls != 0 {
		t.Error("missing post must not reach the moderator")
	}
}

func TestCreateReply_RejectedIsNotPersisted(t *testing.T) {
	mock := &mockDynamo{getOutput: existingPost(t, "p-1")}
	mod := &fakeModerator{replyVerdict: moderation.Verdict{Approved: false, Reason: "This reply dismisses the poster's feelings."}}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), mod, logging.Default())

	_, err := svc.CreateReply(context.Background(), "user-1", "p-1", moderation.ReplyInput{Content: "Just get over it."})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if len(mock.putInputs) != 0 {
		t.Fatalf("rejected reply must not be persisted, got %d puts", len(mock.putInputs))
	}
}

func TestGetThread(t *testing.T) {
	replyItem, _ := attributevalue.MarshalMap(ReplyRecord{ReplyID: "r-1", PostID: "p-1", Content: "hang in there"})
	mock := &mockDynamo{
		getOutput: existingPost(t, "p-1"),
		queryOut:  &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{replyItem}},
	}
	svc := NewService(NewStore(mock, "juvo_community", logging.Default()), &fakeModerator{}, logging.Default())

	thread, err := svc.GetThread(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if thread.Post.PostID != "p-1" {
		t.Errorf("unexpected post: %+v", thread.Post)
	}
	if len(thread.Replies) != 1 || thread.Replies[0].ReplyID != "r-1" {
		t.Errorf("unexpected replies: %+v", thread.Replies)
	}
}

func TestAnonymize(t *testing.T) {
	tests := []struct {
		userID string
		want   string
	}{
		{"abcdefgh", "anonymous_abcde"},
		{"abc", "anonymous_abc"},
		{"", "anonymous_"},
	}
	for _, tt := range tests {
		if got := anonymize(tt.userID); got != tt.want {
			t.Errorf("anonymize(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}
