package community

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iterworks/juvo-backend/internal/moderation"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Moderator is the content gate posts and replies must pass before
// persistence.
type Moderator interface {
	ReviewPost(ctx context.Context, post moderation.PostInput) moderation.Verdict
	ReviewReply(ctx context.Context, reply moderation.ReplyInput) moderation.Verdict
}

// RejectedError is returned when the moderator declines content. Nothing is
// persisted in that case.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("community: content rejected: %s", e.Reason)
}

// Service runs the validate, moderate, persist pipeline for the anonymous
// support board.
type Service struct {
	store     *Store
	moderator Moderator
	logger    *logging.Logger
}

// NewService creates the community service.
func NewService(store *Store, moderator Moderator, logger *logging.Logger) *Service {
	if store == nil {
		panic("community: store cannot be nil")
	}
	if moderator == nil {
		panic("community: moderator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, moderator: moderator, logger: logger}
}

// anonymize derives the public author alias from a user ID. Real identities
// never reach the board.
func anonymize(userID string) string {
	if len(userID) > 5 {
		userID = userID[:5]
	}
	return "anonymous_" + userID
}

// CreatePost validates and moderates a post, persisting it only when the
// verdict approves.
func (s *Service) CreatePost(ctx context.Context, userID string, input moderation.PostInput) (*PostRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	verdict := s.moderator.ReviewPost(ctx, input)
	if !verdict.Approved {
		s.logger.Info("post rejected by moderation", "reason", verdict.Reason)
		return nil, &RejectedError{Reason: verdict.Reason}
	}

	post := &PostRecord{
		PostID:      uuid.NewString(),
		AuthorAlias: anonymize(userID),
		Title:       input.Title,
		Content:     input.Content,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.logger.Info("post published", "post_id", post.PostID)
	return post, nil
}

// CreateReply validates and moderates a reply, persisting it only when the
// verdict approves. The parent post must exist.
func (s *Service) CreateReply(ctx context.Context, userID, postID string, input moderation.ReplyInput) (*ReplyRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	verdict := s.moderator.ReviewReply(ctx, input)
	if !verdict.Approved {
		s.logger.Info("reply rejected by moderation", "post_id", postID, "reason", verdict.Reason)
		return nil, &RejectedError{Reason: verdict.Reason}
	}

	reply := &ReplyRecord{
		ReplyID:     uuid.NewString(),
		PostID:      postID,
		AuthorAlias: anonymize(userID),
		Content:     input.Content,
	}
	if err := s.store.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	s.logger.Info("reply published", "post_id", postID, "reply_id", reply.ReplyID)
	return reply, nil
}

// ListPosts returns the newest posts first.
func (s *Service) ListPosts(ctx context.Context, limit int) ([]PostRecord, error) {
	return s.store.ListPosts(ctx, limit)
}

// PostThread is a post together with its replies.
type PostThread struct {
	Post    PostRecord    `json:"post"`
	Replies []ReplyRecord `json:"replies"`
}

// GetThread fetches a post and its replies in chronological order.
func (s *Service) GetThread(ctx context.Context, postID string) (*PostThread, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.ListReplies(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &PostThread{Post: *post, Replies: replies}, nil
}
