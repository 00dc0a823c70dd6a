package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

func newTestRepos(t *testing.T) (*Store, *repository.Repositories) {
	t.Helper()
	store := NewStore(zerolog.Nop())
	t.Cleanup(func() { _ = store.Close() })
	return store, store.Repositories()
}

func mustCreateUser(t *testing.T, repos *repository.Repositories, name string) *domain.User {
	t.Helper()
	user := domain.NewUser(name, "hash", false)
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}

func mustCreateTheory(t *testing.T, repos *repository.Repositories, authorID int64, title string) *domain.Theory {
	t.Helper()
	theory := domain.NewTheory(authorID, title, "some theory content", "", nil, false, time.Now().UTC())
	require.NoError(t, repos.Theory.Create(context.Background(), theory))
	return theory
}

func mustCreateComment(t *testing.T, repos *repository.Repositories, theoryID, authorID int64) *domain.Comment {
	t.Helper()
	comment := domain.NewComment(theoryID, authorID, "a comment", false, time.Now().UTC())
	require.NoError(t, repos.Comment.Create(context.Background(), comment))
	return comment
}

func TestSequencer_ConcurrentNext(t *testing.T) {
	seq := NewSequencer()

	const workers = 128
	const perWorker = 200

	var wg sync.WaitGroup
	results := make([][]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, seq.Next(KindTheory))
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*perWorker)
	for _, ids := range results {
		for i, id := range ids {
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
			if i > 0 {
				require.Greater(t, id, ids[i-1], "ids must increase per caller")
			}
		}
	}

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), seq.Current(KindTheory))
	for id := int64(1); id <= workers*perWorker; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
}

func TestSequencer_KindsAreIndependent(t *testing.T) {
	seq := NewSequencer()

	assert.Equal(t, int64(1), seq.Next(KindUser))
	assert.Equal(t, int64(1), seq.Next(KindTheory))
	assert.Equal(t, int64(2), seq.Next(KindUser))
	assert.Equal(t, int64(1), seq.Next(KindComment))
	assert.Equal(t, "comment", KindComment.String())
}

func TestUserRepository_CaseInsensitiveUsernames(t *testing.T) {
	ctx := context.Background()
	_, repos := newTestRepos(t)

	mulder := mustCreateUser(t, repos, "Mulder")
	assert.Equal(t, int64(1), mulder.ID)

	err := repos.User.Create(ctx, domain.NewUser("mulder", "other", false))
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repos.User.GetByUsername(ctx, "  MULDER ")
	require.NoError(t, err)
	assert.Equal(t, mulder.ID, got.ID)
	assert.Equal(t, "Mulder", got.Username)

	_, err = repos.User.GetByUsername(ctx, "scully")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	got.Anonymous = true
	require.NoError(t, repos.User.Update(ctx, got))
	again, err := repos.User.GetByID(ctx, mulder.ID)
	require.NoError(t, err)
	assert.True(t, again.Anonymous)

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_ConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	_, repos := newTestRepos(t)

	const workers = 100
	names := []string{"Skinner", "skinner", "SKINNER"}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repos.User.Create(ctx, domain.NewUser(names[i%len(names)], "hash", false))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	}
	assert.Equal(t, 1, created)

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	_, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "mulder")
	theory := domain.NewTheory(author.ID, "Black oil", "it is alive and it spreads", "", []string{"https://x-files.example/1"}, false, time.Now().UTC())
	require.NoError(t, repos.Theory.Create(ctx, theory))

	theory.EvidenceURLs[0] = "mutated"
	theory.Title = "mutated"

	got, err := repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, "Black oil", got.Title)
	assert.Equal(t, []string{"https://x-files.example/1"}, got.EvidenceURLs)

	got.CommentIDs = append(got.CommentIDs, 99)
	again, err := repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Empty(t, again.CommentIDs)
}

func TestTheoryRepository_CreateRequiresAuthor(t *testing.T) {
	_, repos := newTestRepos(t)

	theory := domain.NewTheory(42, "Orphan theory", "nobody wrote this one", "", nil, false, time.Now().UTC())
	err := repos.Theory.Create(context.Background(), theory)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTheoryRepository_UpdateKeepsCommentList(t *testing.T) {
	ctx := context.Background()
	store, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "mulder")
	theory := mustCreateTheory(t, repos, author.ID, "Original title")
	c1 := mustCreateComment(t, repos, theory.ID, author.ID)
	c2 := mustCreateComment(t, repos, theory.ID, author.ID)

	stale := theory.Clone()
	stale.Title = "Edited title"
	stale.Status = domain.StatusVerified
	stale.CommentIDs = nil
	require.NoError(t, repos.Theory.Update(ctx, stale))

	got, err := repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", got.Title)
	assert.Equal(t, domain.StatusVerified, got.Status)
	assert.Equal(t, []int64{c1.ID, c2.ID}, got.CommentIDs)
	assert.Equal(t, author.ID, got.AuthorID)
	require.NoError(t, store.Verify())

	missing := theory.Clone()
	missing.ID = 999
	assert.ErrorIs(t, repos.Theory.Update(ctx, missing), domain.ErrTheoryNotFound)
}

func TestCommentRepository_AttachAndDetach(t *testing.T) {
	ctx := context.Background()
	store, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "scully")
	theory := mustCreateTheory(t, repos, author.ID, "Tooms hibernates")

	err := repos.Comment.Create(ctx, domain.NewComment(999, author.ID, "lost comment", false, time.Now()))
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)

	c1 := mustCreateComment(t, repos, theory.ID, author.ID)
	c2 := mustCreateComment(t, repos, theory.ID, author.ID)
	c3 := mustCreateComment(t, repos, theory.ID, author.ID)

	got, err := repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c1.ID, c2.ID, c3.ID}, got.CommentIDs)
	assert.Equal(t, 3, got.CommentCount())

	require.NoError(t, repos.Comment.Delete(ctx, c2.ID))
	assert.ErrorIs(t, repos.Comment.Delete(ctx, c2.ID), domain.ErrCommentNotFound)

	got, err = repos.Theory.GetByID(ctx, theory.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c1.ID, c3.ID}, got.CommentIDs)

	comments, err := repos.Comment.ListByTheory(ctx, theory.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, c1.ID, comments[0].ID)
	assert.Equal(t, c3.ID, comments[1].ID)

	edit := c1.Clone()
	edit.Content = "edited comment"
	edit.TheoryID = 12345
	require.NoError(t, repos.Comment.Update(ctx, edit))
	stored, err := repos.Comment.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited comment", stored.Content)
	assert.Equal(t, theory.ID, stored.TheoryID)

	require.NoError(t, store.Verify())
}

func TestTheoryRepository_CascadeDelete(t *testing.T) {
	ctx := context.Background()
	store, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "mulder")
	doomed := mustCreateTheory(t, repos, author.ID, "Doomed theory")
	kept := mustCreateTheory(t, repos, author.ID, "Kept theory")

	var doomedComments []int64
	for i := 0; i < 10; i++ {
		doomedComments = append(doomedComments, mustCreateComment(t, repos, doomed.ID, author.ID).ID)
	}
	keptComment := mustCreateComment(t, repos, kept.ID, author.ID)

	removed, err := repos.Theory.Delete(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, removed)

	_, err = repos.Theory.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
	for _, id := range doomedComments {
		_, err := repos.Comment.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	}
	_, err = repos.Comment.ListByTheory(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)

	_, err = repos.Comment.GetByID(ctx, keptComment.ID)
	require.NoError(t, err)

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repos.Theory.Delete(ctx, doomed.ID)
	assert.ErrorIs(t, err, domain.ErrTheoryNotFound)

	// Identifiers are not reused after deletion.
	next := mustCreateTheory(t, repos, author.ID, "Next theory")
	assert.Equal(t, kept.ID+1, next.ID)

	require.NoError(t, store.Verify())
}

func TestStore_ConcurrentCascadeAndReaders(t *testing.T) {
	ctx := context.Background()
	store, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "mulder")

	const theories = 20
	const commentsPer = 15
	ids := make([]int64, 0, theories)
	for i := 0; i < theories; i++ {
		theory := mustCreateTheory(t, repos, author.ID, fmt.Sprintf("Theory number %d", i))
		ids = append(ids, theory.ID)
		for j := 0; j < commentsPer; j++ {
			mustCreateComment(t, repos, theory.ID, author.ID)
		}
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	failures := make(chan string, 64)

	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snapshot, err := repos.Theory.ListAll(ctx)
				if err != nil {
					failures <- err.Error()
					return
				}
				for _, theory := range snapshot {
					if n := theory.CommentCount(); n != commentsPer && n != commentsPer+1 {
						failures <- fmt.Sprintf("theory %d: torn comment list of length %d", theory.ID, n)
						return
					}
				}
				if err := store.Verify(); err != nil {
					failures <- err.Error()
					return
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i, id := range ids {
		writers.Add(1)
		go func(i int, id int64) {
			defer writers.Done()
			if i%2 == 0 {
				_, err := repos.Theory.Delete(ctx, id)
				assert.NoError(t, err)
				return
			}
			c := domain.NewComment(id, author.ID, "late comment", false, time.Now())
			assert.NoError(t, repos.Comment.Create(ctx, c))
		}(i, id)
	}
	writers.Wait()
	close(done)
	readers.Wait()
	close(failures)

	for msg := range failures {
		t.Error(msg)
	}

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64((theories/2)*(commentsPer+1)), count)
	require.NoError(t, store.Verify())
}

func TestStore_CommentCreateRacesTheoryDelete(t *testing.T) {
	ctx := context.Background()
	store, repos := newTestRepos(t)

	author := mustCreateUser(t, repos, "krycek")
	theory := mustCreateTheory(t, repos, author.ID, "Race condition")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.Comment.Create(ctx, domain.NewComment(theory.ID, author.ID, "racing", false, time.Now()))
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrTheoryNotFound)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := repos.Theory.Delete(ctx, theory.ID)
		assert.NoError(t, err)
	}()
	wg.Wait()

	count, err := repos.Comment.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, store.Verify())
}

func TestStore_Close(t *testing.T) {
	store := NewStore(zerolog.Nop())
	repos := store.Repositories()

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Ping(context.Background()), ErrStoreClosed)
	_, err := repos.Theory.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fresh := NewStore(zerolog.Nop())
	_, err = fresh.Repositories().User.Count(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
