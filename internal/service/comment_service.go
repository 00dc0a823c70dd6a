package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/validation"
)

const commentRules = "notblank,min=3,max=5000"

// CommentService handles comment operations.
type CommentService struct {
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "comment").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateCommentInput contains the data needed to comment on a theory.
type CreateCommentInput struct {
	TheoryID int64  `json:"-"`
	AuthorID int64  `json:"-"`
	Content  string `json:"content" validate:"notblank,min=3,max=5000"`

	// Anonymous defaults to the author's preference when nil.
	Anonymous *bool `json:"anonymous"`
}

// Create attaches a new comment to an existing theory.
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (out *domain.Comment, err error) {
	defer func() { s.metrics.RecordOperation("comment.create", resultOf(err)) }()

	author, err := loadCaller(ctx, s.userRepo, input.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	anonymous := author.Anonymous
	if input.Anonymous != nil {
		anonymous = *input.Anonymous
	}

	comment := domain.NewComment(input.TheoryID, author.ID, input.Content, anonymous, s.now())
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, wrapInternal(err)
	}

	s.logger.Info().
		Int64("comment_id", comment.ID).
		Int64("theory_id", comment.TheoryID).
		Int64("author_id", author.ID).
		Msg("comment created")

	return comment, nil
}

// UpdateCommentInput contains the fields of a comment edit.
type UpdateCommentInput struct {
	ID        int64
	CallerID  int64
	Content   string
	Anonymous *bool
}

// Update replaces the content of a comment owned by CallerID.
func (s *CommentService) Update(ctx context.Context, input UpdateCommentInput) (out *domain.Comment, err error) {
	defer func() { s.metrics.RecordOperation("comment.update", resultOf(err)) }()

	if input.CallerID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	comment, err := s.commentRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if err := domain.Authorize(comment.AuthorID, input.CallerID); err != nil {
		s.logger.Warn().
			Int64("comment_id", comment.ID).
			Int64("caller_id", input.CallerID).
			Msg("rejected comment update by non-author")
		return nil, err
	}
	if err := validation.Field("content", input.Content, commentRules); err != nil {
		return nil, err
	}

	comment.Content = input.Content
	if input.Anonymous != nil {
		comment.Anonymous = *input.Anonymous
	}
	comment.UpdatedAt = s.now()

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("failed to update comment")
		return nil, wrapInternal(err)
	}

	s.logger.Info().Int64("comment_id", comment.ID).Msg("comment updated")
	return comment, nil
}

// Delete removes a comment owned by callerID and unlinks it from its theory.
func (s *CommentService) Delete(ctx context.Context, id, callerID int64) (ok bool, err error) {
	defer func() { s.metrics.RecordOperation("comment.delete", resultOf(err)) }()

	if callerID == 0 {
		return false, domain.ErrUnauthenticated
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return false, wrapInternal(err)
	}
	if err := domain.Authorize(comment.AuthorID, callerID); err != nil {
		s.logger.Warn().
			Int64("comment_id", id).
			Int64("caller_id", callerID).
			Msg("rejected comment delete by non-author")
		return false, err
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return false, wrapInternal(err)
	}

	s.logger.Info().
		Int64("comment_id", id).
		Int64("theory_id", comment.TheoryID).
		Msg("comment deleted")

	return true, nil
}

// ListByTheory returns the comments of a theory in creation order.
func (s *CommentService) ListByTheory(ctx context.Context, theoryID int64) ([]*domain.Comment, error) {
	comments, err := s.commentRepo.ListByTheory(ctx, theoryID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	return comments, nil
}
