package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/query"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/validation"
)

// Validation tags shared by create and update.
const (
	titleRules    = "notblank,min=5,max=200"
	contentRules  = "notblank,min=10,max=20000"
	evidenceRules = "max=20,dive,httpurl"
)

// TheoryService handles theory operations.
type TheoryService struct {
	theoryRepo repository.TheoryRepository
	userRepo   repository.UserRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTheoryService creates a new TheoryService.
func NewTheoryService(
	theoryRepo repository.TheoryRepository,
	userRepo repository.UserRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TheoryService {
	return &TheoryService{
		theoryRepo: theoryRepo,
		userRepo:   userRepo,
		metrics:    m,
		logger:     logger.With().Str("service", "theory").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateTheoryInput contains the data needed to post a theory.
type CreateTheoryInput struct {
	AuthorID     int64          `json:"-"`
	Title        string         `json:"title" validate:"notblank,min=5,max=200"`
	Content      string         `json:"content" validate:"notblank,min=10,max=20000"`
	Status       *domain.Status `json:"status"`
	EvidenceURLs []string       `json:"evidence_urls" validate:"max=20,dive,httpurl"`

	// Anonymous defaults to the author's preference when nil.
	Anonymous *bool `json:"anonymous"`
}

// Create posts a new theory on behalf of AuthorID.
func (s *TheoryService) Create(ctx context.Context, input CreateTheoryInput) (out *domain.Theory, err error) {
	defer func() { s.metrics.RecordOperation("theory.create", resultOf(err)) }()

	author, err := loadCaller(ctx, s.userRepo, input.AuthorID)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	status := domain.StatusUnverified
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, domain.NewValidationError("status", "must be one of UNVERIFIED, VERIFIED, DEBUNKED")
		}
		status = *input.Status
	}

	anonymous := author.Anonymous
	if input.Anonymous != nil {
		anonymous = *input.Anonymous
	}

	theory := domain.NewTheory(author.ID, input.Title, input.Content, status, input.EvidenceURLs, anonymous, s.now())
	if err := s.theoryRepo.Create(ctx, theory); err != nil {
		s.logger.Error().Err(err).Int64("author_id", author.ID).Msg("failed to create theory")
		return nil, wrapInternal(err)
	}

	s.logger.Info().
		Int64("theory_id", theory.ID).
		Int64("author_id", author.ID).
		Str("status", theory.Status.String()).
		Msg("theory created")

	return theory, nil
}

// UpdateTheoryInput contains the fields of a partial theory update.
// Nil fields are left unchanged; a non-nil empty EvidenceURLs clears the list.
type UpdateTheoryInput struct {
	ID           int64
	CallerID     int64
	Title        *string
	Content      *string
	Status       *domain.Status
	EvidenceURLs []string
	Anonymous    *bool
}

// Update changes the provided fields of a theory owned by CallerID.
func (s *TheoryService) Update(ctx context.Context, input UpdateTheoryInput) (out *domain.Theory, err error) {
	defer func() { s.metrics.RecordOperation("theory.update", resultOf(err)) }()

	if input.CallerID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	theory, err := s.theoryRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if err := domain.Authorize(theory.AuthorID, input.CallerID); err != nil {
		s.logger.Warn().
			Int64("theory_id", theory.ID).
			Int64("caller_id", input.CallerID).
			Msg("rejected theory update by non-author")
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := validation.Field("title", title, titleRules); err != nil {
			return nil, err
		}
		theory.Title = title
	}
	if input.Content != nil {
		if err := validation.Field("content", *input.Content, contentRules); err != nil {
			return nil, err
		}
		theory.Content = *input.Content
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, domain.NewValidationError("status", "must be one of UNVERIFIED, VERIFIED, DEBUNKED")
		}
		theory.Status = *input.Status
	}
	if input.EvidenceURLs != nil {
		if err := validation.Field("evidence_urls", input.EvidenceURLs, evidenceRules); err != nil {
			return nil, err
		}
		theory.EvidenceURLs = input.EvidenceURLs
	}
	if input.Anonymous != nil {
		theory.Anonymous = *input.Anonymous
	}
	theory.UpdatedAt = s.now()

	if err := s.theoryRepo.Update(ctx, theory); err != nil {
		s.logger.Error().Err(err).Int64("theory_id", theory.ID).Msg("failed to update theory")
		return nil, wrapInternal(err)
	}

	s.logger.Info().Int64("theory_id", theory.ID).Msg("theory updated")
	return theory, nil
}

// Delete removes a theory owned by callerID together with its comments.
func (s *TheoryService) Delete(ctx context.Context, id, callerID int64) (ok bool, err error) {
	defer func() { s.metrics.RecordOperation("theory.delete", resultOf(err)) }()

	if callerID == 0 {
		return false, domain.ErrUnauthenticated
	}

	theory, err := s.theoryRepo.GetByID(ctx, id)
	if err != nil {
		return false, wrapInternal(err)
	}
	if err := domain.Authorize(theory.AuthorID, callerID); err != nil {
		s.logger.Warn().
			Int64("theory_id", id).
			Int64("caller_id", callerID).
			Msg("rejected theory delete by non-author")
		return false, err
	}

	removed, err := s.theoryRepo.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrTheoryNotFound) {
			s.logger.Error().Err(err).Int64("theory_id", id).Msg("failed to delete theory")
		}
		return false, wrapInternal(err)
	}

	s.logger.Info().
		Int64("theory_id", id).
		Int("comments_removed", removed).
		Msg("theory deleted")

	return true, nil
}

// Get retrieves a theory by ID.
func (s *TheoryService) Get(ctx context.Context, id int64) (*domain.Theory, error) {
	theory, err := s.theoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapInternal(err)
	}
	return theory, nil
}

// Query filters, sorts and paginates a consistent snapshot of all theories.
func (s *TheoryService) Query(ctx context.Context, params query.Params) (out *domain.TheoryPage, err error) {
	defer func() { s.metrics.RecordOperation("theory.query", resultOf(err)) }()

	if params.Status != nil && !params.Status.IsValid() {
		return nil, domain.NewValidationError("status", "must be one of UNVERIFIED, VERIFIED, DEBUNKED")
	}

	start := time.Now()
	snapshot, err := s.theoryRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list theories")
		return nil, wrapInternal(err)
	}

	page := query.Run(snapshot, params)
	s.metrics.RecordQuery(time.Since(start), page.TotalCount)

	s.logger.Debug().
		Str("keyword", params.Keyword).
		Bool("hot", params.Hot).
		Int("page", page.Page).
		Int("size", page.Size).
		Int("total", page.TotalCount).
		Msg("theories queried")

	return page, nil
}

// ByUser returns all theories posted by userID, newest first.
func (s *TheoryService) ByUser(ctx context.Context, userID int64) ([]*domain.Theory, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, wrapInternal(err)
	}

	theories, err := s.theoryRepo.ListByAuthor(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user theories")
		return nil, wrapInternal(err)
	}
	return query.SortRecent(theories), nil
}
