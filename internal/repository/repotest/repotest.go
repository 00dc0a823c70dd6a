// Package repotest holds a behavioral suite shared by every repository backend.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// Factory returns an empty repository set. It registers its own cleanup.
type Factory func(t *testing.T) *repository.Repositories

// Run exercises the repository contract against the backend built by newRepos.
func Run(t *testing.T, newRepos Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepos(t)) })
	t.Run("Theories", func(t *testing.T) { testTheories(t, newRepos(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newRepos(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newRepos(t)) })
}

var epoch = time.Date(1993, time.September, 10, 21, 0, 0, 0, time.UTC)

func createUser(t *testing.T, repos *repository.Repositories, name string) *domain.User {
	t.Helper()
	user := &domain.User{Username: name, PasswordHash: "hash", CreatedAt: epoch}
	require.NoError(t, repos.User.Create(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func createTheory(t *testing.T, repos *repository.Repositories, authorID int64, title string) *domain.Theory {
	t.Helper()
	theory := domain.NewTheory(authorID, title, "Content for "+title, domain.StatusUnverified, []string{"https://fbi.gov/x"}, false, epoch)
	require.NoError(t, repos.Theory.Create(context.Background(), theory))
	require.NotZero(t, theory.ID)
	return theory
}

func createComment(t *testing.T, repos *repository.Repositories, theoryID, authorID int64) *domain.Comment {
	t.Helper()
	comment := domain.NewComment(theoryID, authorID, "I want to believe", false, epoch)
	require.NoError(t, repos.Comment.Create(context.Background(), comment))
	require.NotZero(t, comment.ID)
	return comment
}

func testUsers(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	mulder := createUser(t, repos, "Mulder")

	err := repos.User.Create(ctx, &domain.User{Username: " MULDER", PasswordHash: "x", CreatedAt: epoch})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	found, err := repos.User.GetByUsername(ctx, "mulder")
	require.NoError(t, err)
	assert.Equal(t, mulder.ID, found.ID)
	assert.Equal(t, "Mulder", found.Username)
	assert.True(t, epoch.Equal(found.CreatedAt))

	found.Anonymous = true
	found.PasswordHash = "rehashed"
	require.NoError(t, repos.User.Update(ctx, found))

	stored, err := repos.User.GetByID(ctx, mulder.ID)
	require.NoError(t, err)
	assert.True(t, stored.Anonymous)
	assert.Equal(t, "rehashed", stored.PasswordHash)

	_, err = repos.User.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repos.User.GetByUsername(ctx, "scully")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, repos.User.Update(ctx, &domain.User{ID: 999}), domain.ErrUserNotFound)

	scully := createUser(t, repos, "Scully")
	assert.Greater(t, scully.ID, mulder.ID)

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func testTheories(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	author := createUser(t, repos, "Mulder")
	other := createUser(t, repos, "Scully")

	orphan := domain.NewTheory(999, "Orphan theory", "Nobody posted this.", "", nil, false, epoch)
	assert.ErrorIs(t, repos.Theory.Create(ctx, orphan), domain.ErrUserNotFound)

	first := createTheory(t, repos, author.ID, "Tunguska")
	second := createTheory(t, repos, other.ID, "Black oil")
	third := createTheory(t, repos, author.ID, "Colony")

	got, err := repos.Theory.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tunguska", got.Title)
	assert.Equal(t, domain.StatusUnverified, got.Status)
	assert.Equal(t, []string{"https://fbi.gov/x"}, got.EvidenceURLs)
	assert.Empty(t, got.CommentIDs)
	assert.NotNil(t, got.CommentIDs)
	assert.True(t, epoch.Equal(got.PostedAt))

	comment := createComment(t, repos, first.ID, other.ID)

	got.Title = "Tunguska event"
	got.Status = domain.StatusVerified
	got.EvidenceURLs = []string{"https://a.example", "https://a.example"}
	got.Anonymous = true
	got.UpdatedAt = epoch.Add(time.Hour)
	got.CommentIDs = nil
	require.NoError(t, repos.Theory.Update(ctx, got))
	assert.Equal(t, []int64{comment.ID}, got.CommentIDs)

	updated, err := repos.Theory.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tunguska event", updated.Title)
	assert.Equal(t, domain.StatusVerified, updated.Status)
	assert.Equal(t, []string{"https://a.example", "https://a.example"}, updated.EvidenceURLs)
	assert.True(t, updated.Anonymous)
	assert.True(t, epoch.Add(time.Hour).Equal(updated.UpdatedAt))
	assert.True(t, epoch.Equal(updated.PostedAt))
	assert.Equal(t, author.ID, updated.AuthorID)
	assert.Equal(t, []int64{comment.ID}, updated.CommentIDs)

	missing := updated.Clone()
	missing.ID = 999
	assert.ErrorIs(t, repos.Theory.Update(ctx, missing), domain.ErrTheoryNotFound)

	all, err := repos.Theory.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, []int64{comment.ID}, all[0].CommentIDs)
	assert.Empty(t, all[1].CommentIDs)

	mine, err := repos.Theory.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, third.ID, mine[1].ID)

	none, err := repos.Theory.ListByAuthor(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := repos.Theory.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repos.Theory.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
}

func testComments(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	author := createUser(t, repos, "Skinner")
	theory := createTheory(t, repos, author.ID, "Syndicate")

	orphan := domain.NewComment(999, author.ID, "No parent", false, epoch)
	assert.ErrorIs(t, repos.Comment.Create(ctx, orphan), domain.ErrTheoryNotFound)

	first := createComment(t, repos, theory.ID, author.ID)
	second := createComment(t, repos, theory.ID, author.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := repos.Comment.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, theory.ID, got.TheoryID)

	got.Content = "Edited"
	got.Anonymous = true
	got.UpdatedAt = epoch.Add(time.Minute)
	got.TheoryID = 12345
	require.NoError(t, repos.Comment.Update(ctx, got))

	stored, err := repos.Comment.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", stored.Content)
	assert.True(t, stored.Anonymous)
	assert.Equal(t, theory.ID, stored.TheoryID, "parent linkage is immutable")

	list, err := repos.Comment.ListByTheory(ctx, theory.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	require.NoError(t, repos.Comment.Delete(ctx, first.ID))
	assert.ErrorIs(t, repos.Comment.Delete(ctx, first.ID), domain.ErrCommentNotFound)
	_, err = repos.Comment.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	parent, err := repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, parent.CommentIDs)

	_, err = repos.Comment.ListByTheory(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func testCascadeDelete(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	author := createUser(t, repos, "Krycek")
	doomed := createTheory(t, repos, author.ID, "Purity control")
	kept := createTheory(t, repos, author.ID, "Merchandise")

	var doomedComments []int64
	for i := 0; i < 3; i++ {
		doomedComments = append(doomedComments, createComment(t, repos, doomed.ID, author.ID).ID)
	}
	keptComment := createComment(t, repos, kept.ID, author.ID)

	removed, err := repos.Theory.Delete(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, err = repos.Theory.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
	for _, id := range doomedComments {
		_, err := repos.Comment.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	}

	_, err = repos.Theory.Delete(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)

	survivor, err := repos.Theory.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{keptComment.ID}, survivor.CommentIDs)

	// Identifiers are never reused after a delete.
	next := createTheory(t, repos, author.ID, "Abduction")
	assert.Greater(t, next.ID, kept.ID)
	nextComment := createComment(t, repos, next.ID, author.ID)
	assert.Greater(t, nextComment.ID, keptComment.ID)

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
