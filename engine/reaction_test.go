package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/store"
)

func TestToggleLikeFromNone(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	actor := f.profile(t)

	result, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)
	assert.Equal(t, &ReactionResult{Likes: 1, Dislikes: 0, ReactionScore: ScoreLiked}, result)

	assert.True(t, f.reloadPost(t, post.ID).Likes.Has(actor.ID))
	assert.True(t, f.reloadProfile(t, actor.ID).LikedPosts.Has(post.ID))
}

func TestDoubleToggleReturnsToNone(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	actor := f.profile(t)

	_, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)
	result, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)

	assert.Equal(t, &ReactionResult{Likes: 0, Dislikes: 0, ReactionScore: ScoreNone}, result)
	assert.False(t, f.reloadPost(t, post.ID).Likes.Has(actor.ID))
	assert.False(t, f.reloadProfile(t, actor.ID).LikedPosts.Has(post.ID))
}

func TestCrossTransitionDislikedToLiked(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	actor := f.profile(t)

	_, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleDislike)
	require.NoError(t, err)
	result, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)

	assert.Equal(t, &ReactionResult{Likes: 1, Dislikes: 0, ReactionScore: ScoreLiked}, result)

	reloaded := f.reloadPost(t, post.ID)
	profile := f.reloadProfile(t, actor.ID)
	assert.True(t, reloaded.Likes.Has(actor.ID))
	assert.False(t, reloaded.Dislikes.Has(actor.ID))
	assert.True(t, profile.LikedPosts.Has(post.ID))
	assert.False(t, profile.DislikedPosts.Has(post.ID))
}

func TestToggleSequences(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		want    ReactionResult
	}{
		{"like", []Action{ToggleLike}, ReactionResult{1, 0, ScoreLiked}},
		{"dislike", []Action{ToggleDislike}, ReactionResult{0, 1, ScoreDisliked}},
		{"dislike twice", []Action{ToggleDislike, ToggleDislike}, ReactionResult{0, 0, ScoreNone}},
		{"like then dislike", []Action{ToggleLike, ToggleDislike}, ReactionResult{0, 1, ScoreDisliked}},
		{"dislike like dislike", []Action{ToggleDislike, ToggleLike, ToggleDislike}, ReactionResult{0, 1, ScoreDisliked}},
		{"full cycle", []Action{ToggleLike, ToggleDislike, ToggleDislike}, ReactionResult{0, 0, ScoreNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			reactions := NewReactions(f.store)
			ctx := context.Background()

			author := f.profile(t)
			community := f.community(t, author.ID, "golang")
			post := f.post(t, author.ID, community.ID)
			actor := f.profile(t)

			var result *ReactionResult
			var err error
			for _, action := range tt.actions {
				result, err = reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, action)
				require.NoError(t, err)
			}
			assert.Equal(t, &tt.want, result)

			// Symmetry holds after every sequence.
			require.NoError(t, NewAuditor(f.store).CheckProfile(ctx, actor.ID))
		})
	}
}

func TestCommentReactionsUseCommentSets(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	comment := f.comment(t, author.ID, post.ID, nil)
	actor := f.profile(t)

	result, err := reactions.Toggle(ctx, actor.ID, TargetComment, comment.ID, ToggleDislike)
	require.NoError(t, err)
	assert.Equal(t, &ReactionResult{Likes: 0, Dislikes: 1, ReactionScore: ScoreDisliked}, result)

	profile := f.reloadProfile(t, actor.ID)
	assert.True(t, f.reloadComment(t, comment.ID).Dislikes.Has(actor.ID))
	assert.True(t, profile.DislikedComments.Has(comment.ID))
	assert.Empty(t, profile.DislikedPosts)
}

func TestInvalidActionRejected(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)

	_, err := reactions.Toggle(ctx, author.ID, TargetPost, post.ID, Action("BOGUS"))
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = reactions.Toggle(ctx, author.ID, TargetKind("ARTICLE"), post.ID, ToggleLike)
	assert.ErrorIs(t, err, ErrInvalidAction)

	// Nothing was applied.
	assert.Empty(t, f.reloadPost(t, post.ID).Likes)
}

func TestToggleUnknownTarget(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)

	actor := f.profile(t)
	_, err := reactions.Toggle(context.Background(), actor.ID, TargetPost, primitive.NewObjectID(), ToggleLike)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirrorDisagreementDetected(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	actor := f.profile(t)

	// Corrupt one side: the post records a like the profile never saw.
	require.NoError(t, f.store.AddToSet(ctx, store.KindPost, post.ID, store.FieldLikes, actor.ID))

	_, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	f := newFixture()
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "golang")
	post := f.post(t, author.ID, community.ID)
	actor := f.profile(t)

	_, err := reactions.Toggle(ctx, actor.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)

	// A toggle from a nonexistent profile fails inside the unit and must
	// leave the post untouched.
	snapshotLikes := len(f.reloadPost(t, post.ID).Likes)

	_, err = reactions.Toggle(ctx, primitive.NewObjectID(), TargetPost, post.ID, ToggleDislike)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, snapshotLikes, len(f.reloadPost(t, post.ID).Likes))
}
