package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/query"
)

func TestCommentService_Create(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	authorID, _ := ts.register(t, "Mulder")
	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: authorID, Title: "The Jersey Devil", Content: "Something lives in the woods."})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   CreateCommentInput
		wantErr error
	}{
		{name: "valid", input: CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "Saw it too."}},
		{name: "unauthenticated", input: CreateCommentInput{TheoryID: theory.ID, Content: "Saw it too."}, wantErr: domain.ErrUnauthenticated},
		{name: "missing theory", input: CreateCommentInput{TheoryID: 999, AuthorID: authorID, Content: "Saw it too."}, wantErr: domain.ErrTheoryNotFound},
		{name: "too short", input: CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "ok"}, wantErr: domain.ErrValidation},
		{name: "blank", input: CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "      "}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := ts.comments.Create(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, theory.ID, comment.TheoryID)
			assert.Equal(t, authorID, comment.AuthorID)
		})
	}

	stored, err := ts.theories.Get(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CommentCount())
}

func TestCommentService_UpdateByNonAuthor(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	authorID, _ := ts.register(t, "Scully")
	otherID, _ := ts.register(t, "Spender")

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: authorID, Title: "Implant in the neck", Content: "A chip was removed from my neck."})
	require.NoError(t, err)
	comment, err := ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "Original content"})
	require.NoError(t, err)

	_, err = ts.comments.Update(ctx, UpdateCommentInput{ID: comment.ID, CallerID: otherID, Content: "Nothing to see here"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = ts.comments.Update(ctx, UpdateCommentInput{ID: comment.ID, Content: "Nothing to see here"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	stored, err := ts.repos.Comment.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original content", stored.Content)
}

func TestCommentService_Update(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	authorID, _ := ts.register(t, "Scully")
	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: authorID, Title: "Squeeze follow-up", Content: "Tooms left bile nests."})
	require.NoError(t, err)
	comment, err := ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "First draft"})
	require.NoError(t, err)

	_, err = ts.comments.Update(ctx, UpdateCommentInput{ID: comment.ID, CallerID: authorID, Content: "no"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ts.comments.Update(ctx, UpdateCommentInput{ID: 999, CallerID: authorID, Content: "Edited"})
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	updated, err := ts.comments.Update(ctx, UpdateCommentInput{ID: comment.ID, CallerID: authorID, Content: "Edited draft", Anonymous: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Edited draft", updated.Content)
	assert.True(t, updated.Anonymous)
	assert.Equal(t, theory.ID, updated.TheoryID)

	comments, err := ts.comments.ListByTheory(ctx, theory.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Edited draft", comments[0].Content)
}

func TestCommentService_Delete(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	authorID, _ := ts.register(t, "Mulder")
	otherID, _ := ts.register(t, "Scully")

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{AuthorID: authorID, Title: "Little green men", Content: "Arecibo picked up a signal."})
	require.NoError(t, err)
	first, err := ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: otherID, Content: "Interference."})
	require.NoError(t, err)
	second, err := ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: authorID, Content: "It was not."})
	require.NoError(t, err)

	ok, err := ts.comments.Delete(ctx, first.ID, authorID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, ok)

	ok, err = ts.comments.Delete(ctx, first.ID, otherID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.comments.Delete(ctx, first.ID, otherID)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	assert.False(t, ok)

	stored, err := ts.theories.Get(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, stored.CommentIDs)

	_, err = ts.comments.ListByTheory(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
	require.NoError(t, ts.store.Verify())
}

func TestScenario_Mulder(t *testing.T) {
	ctx := context.Background()
	ts := newTestServices(t)

	auth, err := ts.users.RegisterOrLogin(ctx, RegisterOrLoginInput{Username: "Mulder", Secret: "TRUSTNO1"})
	require.NoError(t, err)

	callerID, ok := ts.tokens.Resolve(ctx, auth.Token)
	require.True(t, ok)

	theory, err := ts.theories.Create(ctx, CreateTheoryInput{
		AuthorID: callerID,
		Title:    "Cigarette Smoking Man",
		Content:  "He was in Dallas in 1963.",
	})
	require.NoError(t, err)

	_, err = ts.comments.Create(ctx, CreateCommentInput{TheoryID: theory.ID, AuthorID: callerID, Content: "Need more photos."})
	require.NoError(t, err)

	page, err := ts.theories.Query(ctx, query.Params{Hot: true, Page: ptr(0), Size: ptr(10)})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, theory.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Items[0].CommentCount())
}
