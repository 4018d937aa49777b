package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
)

func createPost(t *testing.T, svc *PostService, author, text string) *model.Post {
	t.Helper()
	p, err := svc.Create(context.Background(), author, text)
	require.NoError(t, err)
	return p
}

// =========================================================================
// CREATE / READ
// =========================================================================

func TestCreatePost_SnapshotsAuthor(t *testing.T) {
	deps := newTestDeps(t)
	svc := deps.postService()
	ctx := context.Background()

	p := createPost(t, svc, alice.ID, "  hello  ")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, alice.ID, p.Author)
	assert.Equal(t, "Alice", p.AuthorName)
	assert.Equal(t, alice.AvatarURL, p.AuthorAvatar)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Comments)

	// Renaming the user later does not change the stored snapshot.
	renamed := alice
	renamed.Name = "Alice Cooper"
	require.NoError(t, deps.users.CreateUser(ctx, &renamed))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.AuthorName)
}

func TestCreatePost_Validation(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice.ID, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, alice.ID, strings.Repeat("a", MaxPostTextLength+1))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreatePost_UnknownAuthor(t *testing.T) {
	svc := newTestDeps(t).postService()

	_, err := svc.Create(context.Background(), "ghost", "hello")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetPost_NotFound(t *testing.T) {
	svc := newTestDeps(t).postService()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListPosts_NewestFirst(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()

	first := createPost(t, svc, alice.ID, "first")
	second := createPost(t, svc, bob.ID, "second")
	third := createPost(t, svc, alice.ID, "third")

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := svc.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
}

func TestListPosts_Empty(t *testing.T) {
	svc := newTestDeps(t).postService()

	posts, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdateText(t *testing.T) {
	svc := newTestDeps(t).postService()
	p := createPost(t, svc, alice.ID, "hello")

	updated, err := svc.UpdateText(context.Background(), alice.ID, p.ID, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Text)
}

func TestUpdateText_WrongAuthorIsUnauthorized(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	_, err := svc.UpdateText(ctx, bob.ID, p.ID, "hijacked")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
}

func TestUpdateText_MissingPostIsNotFound(t *testing.T) {
	svc := newTestDeps(t).postService()

	_, err := svc.UpdateText(context.Background(), alice.ID, "missing", "text")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestDeletePost(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	err := svc.Delete(ctx, bob.ID, p.ID)
	require.ErrorIs(t, err, apperror.ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, alice.ID, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Delete(ctx, alice.ID, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// LIKES
// =========================================================================

func TestToggleLike_RoundTrip(t *testing.T) {
	deps := newTestDeps(t)
	svc := deps.postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	likes, err := svc.ToggleLike(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, alice.ID, likes[0].Actor)
	assert.NotEmpty(t, likes[0].ID)

	likes, err = svc.ToggleLike(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
}

func TestToggleLike_OnePerActor(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	_, err := svc.ToggleLike(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	likes, err := svc.ToggleLike(ctx, bob.ID, p.ID)
	require.NoError(t, err)

	require.Len(t, likes, 2)
	assert.Equal(t, bob.ID, likes[0].Actor, "most recent first")
	assert.Equal(t, alice.ID, likes[1].Actor)

	// Bob unliking leaves Alice's like alone.
	likes, err = svc.ToggleLike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, alice.ID, likes[0].Actor)
}

func TestToggleLike_MissingPost(t *testing.T) {
	deps := newTestDeps(t)
	svc := deps.postService()

	_, err := svc.ToggleLike(context.Background(), alice.ID, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, deps.metrics.rejections["like/not_found"])
}

func TestToggleLike_Concurrent(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	var wg sync.WaitGroup
	for _, actor := range []string{alice.ID, bob.ID} {
		actor := actor
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleLike(ctx, actor, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, 2, "neither like may be lost")
}

// =========================================================================
// COMMENTS
// =========================================================================

func TestAddComment(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	_, err := svc.AddComment(ctx, alice.ID, p.ID, "first")
	require.NoError(t, err)
	comments, err := svc.AddComment(ctx, bob.ID, p.ID, " nice ")
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "nice", comments[0].Text)
	assert.Equal(t, bob.ID, comments[0].Actor)
	assert.Equal(t, "Bob", comments[0].AuthorName)
	assert.Equal(t, bob.AvatarURL, comments[0].AuthorAvatar)
	assert.False(t, comments[0].CreatedAt.IsZero())
	assert.Equal(t, "first", comments[1].Text)
}

func TestAddComment_Validation(t *testing.T) {
	svc := newTestDeps(t).postService()
	p := createPost(t, svc, alice.ID, "hello")

	_, err := svc.AddComment(context.Background(), bob.ID, p.ID, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAddComment_MissingPost(t *testing.T) {
	svc := newTestDeps(t).postService()

	_, err := svc.AddComment(context.Background(), bob.ID, "missing", "nice")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRemoveComment_PostOwnerCannotRemoveOthersComment(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	comments, err := svc.AddComment(ctx, bob.ID, p.ID, "nice")
	require.NoError(t, err)

	_, err = svc.RemoveComment(ctx, alice.ID, p.ID, comments[0].ID)
	require.ErrorIs(t, err, apperror.ErrUnauthorized)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1, "comment still present")
	assert.Equal(t, "nice", got.Comments[0].Text)
}

func TestRemoveComment_ByAuthor(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	_, err := svc.AddComment(ctx, alice.ID, p.ID, "one")
	require.NoError(t, err)
	comments, err := svc.AddComment(ctx, bob.ID, p.ID, "two")
	require.NoError(t, err)

	comments, err = svc.RemoveComment(ctx, bob.ID, p.ID, comments[0].ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "one", comments[0].Text)
}

func TestRemoveComment_NotFound(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")
	_, err := svc.AddComment(ctx, bob.ID, p.ID, "nice")
	require.NoError(t, err)

	_, err = svc.RemoveComment(ctx, bob.ID, p.ID, "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.RemoveComment(ctx, bob.ID, "missing", "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)
}

func TestUpdateComment_KeepsCreationTime(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")

	original := now
	now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = original })

	comments, err := svc.AddComment(ctx, bob.ID, p.ID, "nice")
	require.NoError(t, err)
	c := comments[0]

	now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	updated, err := svc.UpdateComment(ctx, bob.ID, p.ID, c.ID, "very nice")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)

	got := updated.Comments[0]
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "very nice", got.Text)
	assert.Equal(t, bob.ID, got.Actor)
	assert.Equal(t, "Bob", got.AuthorName)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
}

func TestUpdateComment_OnlyAuthor(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()
	p := createPost(t, svc, alice.ID, "hello")
	comments, err := svc.AddComment(ctx, bob.ID, p.ID, "nice")
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, alice.ID, p.ID, comments[0].ID, "edited")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.UpdateComment(ctx, bob.ID, p.ID, "missing", "edited")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// SCENARIO
// =========================================================================

func TestScenario_LikeUnlike(t *testing.T) {
	svc := newTestDeps(t).postService()
	ctx := context.Background()

	p := createPost(t, svc, alice.ID, "hello")

	likes, err := svc.ToggleLike(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, alice.ID, likes[0].Actor)

	likes, err = svc.ToggleLike(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)
}
