package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/query"
)

func TestTheoryService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     func(authorID int64) CreateTheoryInput
		wantErr   error
		wantField string
		check     func(t *testing.T, theory *domain.Theory)
	}{
		{
			name: "defaults",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "  Cigarette Smoking Man ", Content: "He knows everything."}
			},
			check: func(t *testing.T, theory *domain.Theory) {
				assert.Equal(t, "Cigarette Smoking Man", theory.Title)
				assert.Equal(t, domain.StatusUnverified, theory.Status)
				assert.False(t, theory.Anonymous)
				assert.NotNil(t, theory.EvidenceURLs)
				assert.Empty(t, theory.CommentIDs)
				assert.Equal(t, theory.PostedAt, theory.UpdatedAt)
			},
		},
		{
			name: "explicit fields",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{
					AuthorID:     authorID,
					Title:        "Area 51 hangar",
					Content:      "There is a craft in hangar 18.",
					Status:       ptr(domain.StatusVerified),
					EvidenceURLs: []string{"https://a.example/1", "https://a.example/1"},
					Anonymous:    ptr(true),
				}
			},
			check: func(t *testing.T, theory *domain.Theory) {
				assert.Equal(t, domain.StatusVerified, theory.Status)
				assert.True(t, theory.Anonymous)
				assert.Equal(t, []string{"https://a.example/1", "https://a.example/1"}, theory.EvidenceURLs)
			},
		},
		{
			name: "unauthenticated",
			input: func(int64) CreateTheoryInput {
				return CreateTheoryInput{Title: "Valid title", Content: "Valid content here"}
			},
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name: "unknown author",
			input: func(int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: 404, Title: "Valid title", Content: "Valid content here"}
			},
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name: "short title",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "UFO", Content: "Valid content here"}
			},
			wantErr:   domain.ErrValidation,
			wantField: "title",
		},
		{
			name: "short content",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "Valid title", Content: "too short"}
			},
			wantErr:   domain.ErrValidation,
			wantField: "content",
		},
		{
			name: "too long content",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "Valid title", Content: strings.Repeat("x", 20001)}
			},
			wantErr:   domain.ErrValidation,
			wantField: "content",
		},
		{
			name: "bad status",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "Valid title", Content: "Valid content here", Status: ptr(domain.Status("MAYBE"))}
			},
			wantErr:   domain.ErrValidation,
			wantField: "status",
		},
		{
			name: "bad evidence url",
			input: func(authorID int64) CreateTheoryInput {
				return CreateTheoryInput{AuthorID: authorID, Title: "Valid title", Content: "Valid content here", EvidenceURLs: []string{"not a url"}}
			},
			wantErr:   domain.ErrValidation,
			wantField: "evidence_urls[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServices(t)
			authorID, _ := ts.register(t, "Mulder")

			theory, err := ts.theories.Create(context.Background(), tt.input(authorID))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantField != "" {
					var verr *domain.ValidationError
					require.True(t, errors.As(err, &verr))
					assert.Equal(t, tt.wantField, verr.Field)
				}
				count, countErr := ts.repos.Theory.Count(context.Background())
				require.NoError(t, countErr)
				assert.Zero(t, count)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), theory.ID)
			assert.Equal(t, authorID, theory.AuthorID)
			tt.check(t, theory)
		})
	}
}

func TestTheoryService_CreateUsesAuthorAnonymity(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	out, err := ts.users.RegisterOrLogin(ctx, RegisterOrLoginInput{Username: "Informant", Secret: "shadows", Anonymous: ptr(true)})
	require.NoError(t, err)

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: out.User.ID, Title: "They are here", Content: "Watch the skies tonight."})
	require.NoError(t, err)
	assert.True(t, theory.Anonymous)

	visible, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: out.User.ID, Title: "Signed theory", Content: "I stand by this one.", Anonymous: ptr(false)})
	require.NoError(t, err)
	assert.False(t, visible.Anonymous)
}

func TestTheoryService_Update(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)
	ts.theories.now = stepClock(time.Date(1994, 1, 1, 0, 0, 0, 0, time.UTC))

	authorID, _ := ts.register(t, "Mulder")
	otherID, _ := ts.register(t, "Scully")

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{
		AuthorID:     authorID,
		Title:        "Flukeman",
		Content:      "A mutated flatworm in the sewers.",
		EvidenceURLs: []string{"https://sewer.example/1"},
	})
	require.NoError(t, err)
	_, err = ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: otherID, Content: "Gross."})
	require.NoError(t, err)

	t.Run("non-author is forbidden", func(t *testing.T) {
		_, err := ts.theories.Update(ctx, UpdateTheoryInput{ID: theory.ID, CallerID: otherID, Title: ptr("Hijacked title")})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		stored, err := ts.theories.Get(ctx, theory.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flukeman", stored.Title)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := ts.theories.Update(ctx, UpdateTheoryInput{ID: theory.ID, Title: ptr("Hijacked title")})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("missing theory", func(t *testing.T) {
		_, err := ts.theories.Update(ctx, UpdateTheoryInput{ID: 999, CallerID: authorID})
		assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
	})

	t.Run("invalid field leaves theory unchanged", func(t *testing.T) {
		_, err := ts.theories.Update(ctx, UpdateTheoryInput{
			ID:       theory.ID,
			CallerID: authorID,
			Title:    ptr("Flukeman returns"),
			Content:  ptr("short"),
		})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := ts.theories.Get(ctx, theory.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flukeman", stored.Title)
	})

	t.Run("partial update", func(t *testing.T) {
		updated, err := ts.theories.Update(ctx, UpdateTheoryInput{
			ID:       theory.ID,
			CallerID: authorID,
			Status:   ptr(domain.StatusDebunked),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDebunked, updated.Status)
		assert.Equal(t, "Flukeman", updated.Title)
		assert.Equal(t, "A mutated flatworm in the sewers.", updated.Content)
		assert.Equal(t, []string{"https://sewer.example/1"}, updated.EvidenceURLs)
		assert.Len(t, updated.CommentIDs, 1)
		assert.True(t, updated.UpdatedAt.After(updated.PostedAt))
	})

	t.Run("clear evidence", func(t *testing.T) {
		updated, err := ts.theories.Update(ctx, UpdateTheoryInput{
			ID:           theory.ID,
			CallerID:     authorID,
			EvidenceURLs: []string{},
			Anonymous:    ptr(true),
		})
		require.NoError(t, err)
		assert.Empty(t, updated.EvidenceURLs)
		assert.True(t, updated.Anonymous)
	})
}

func TestTheoryService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	authorID, _ := ts.register(t, "Mulder")
	otherID, _ := ts.register(t, "Scully")

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: authorID, Title: "Eugene Tooms", Content: "He comes back every thirty years."})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: otherID, Content: fmt.Sprintf("comment %d", i)})
		require.NoError(t, err)
	}

	ok, err := ts.theories.Delete(ctx, theory.ID, otherID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, ok)

	ok, err = ts.theories.Delete(ctx, theory.ID, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, ok)

	ok, err = ts.theories.Delete(ctx, theory.ID, authorID)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := ts.repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	page, err := ts.theories.Query(ctx, query.Params{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)

	ok, err = ts.theories.Delete(ctx, theory.ID, authorID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
	assert.False(t, ok)

	require.NoError(t, ts.store.Verify())
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.OperationsTotal.WithLabelValues("theory.delete", metrics.ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.OperationsTotal.WithLabelValues("theory.delete", metrics.ResultUnauthorized)))
}

func TestTheoryService_QueryFixture(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)
	ts.theories.now = stepClock(time.Date(2001, 5, 20, 0, 0, 0, 0, time.UTC))

	authorID, _ := ts.register(t, "Lone Gunman")

	var verified []int64
	for i := 0; i < 20; i++ {
		status := domain.StatusVerified
		if i%4 == 3 {
			status = domain.StatusUnverified
		}
		theory, err := ts.theories.Create(ctx, CreateTheoryInput{
			AuthorID: authorID,
			Title:    fmt.Sprintf("Theory number %02d", i),
			Content:  "The truth is out there.",
			Status:   ptr(status),
		})
		require.NoError(t, err)
		if status == domain.StatusVerified {
			verified = append(verified, theory.ID)
		}
	}
	require.Len(t, verified, 15)

	page, err := ts.theories.Query(ctx, query.Params{Status: ptr(domain.StatusVerified), Page: ptr(0), Size: ptr(10)})
	require.NoError(t, err)

	assert.Equal(t, 15, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 10)
	for i, item := range page.Items {
		assert.Equal(t, domain.StatusVerified, item.Status)
		assert.Equal(t, verified[len(verified)-1-i], item.ID)
	}

	_, err = ts.theories.Query(ctx, query.Params{Status: ptr(domain.Status("LIES"))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	empty, err := ts.theories.Query(ctx, query.Params{Page: ptr(50)})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 20, empty.TotalCount)
}

func TestTheoryService_ByUser(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)
	ts.theories.now = stepClock(time.Date(1998, 6, 19, 0, 0, 0, 0, time.UTC))

	mulder, _ := ts.register(t, "Mulder")
	scully, _ := ts.register(t, "Scully")

	var mine []int64
	for i := 0; i < 3; i++ {
		theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: mulder, Title: fmt.Sprintf("Mulder theory %d", i), Content: "I want to believe."})
		require.NoError(t, err)
		mine = append(mine, theory.ID)
		_, err = ts.theories.Create(ctx, CreateTheoryInput{AuthorID: scully, Title: fmt.Sprintf("Scully rebuttal %d", i), Content: "There is a rational explanation."})
		require.NoError(t, err)
	}

	theories, err := ts.theories.ByUser(ctx, mulder)
	require.NoError(t, err)
	require.Len(t, theories, 3)
	assert.Equal(t, []int64{mine[2], mine[1], mine[0]}, []int64{theories[0].ID, theories[1].ID, theories[2].ID})

	_, err = ts.theories.ByUser(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
