package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/store"
)

func TestAuditorPassesOnConsistentProfile(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)
	reactions := NewReactions(f.store)
	follows := NewFollows(f.store)
	ctx := context.Background()

	profile := f.profile(t)
	community := f.community(t, profile.ID, "c")
	post := f.post(t, profile.ID, community.ID)
	comment := f.comment(t, profile.ID, post.ID, nil)

	_, err := reactions.Toggle(ctx, profile.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)
	_, err = reactions.Toggle(ctx, profile.ID, TargetComment, comment.ID, ToggleDislike)
	require.NoError(t, err)
	_, err = follows.Toggle(ctx, profile.ID, "c")
	require.NoError(t, err)

	assert.NoError(t, auditor.CheckProfile(ctx, profile.ID))
}

func TestAuditorUnknownProfile(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)

	err := auditor.CheckProfile(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditorDetectsMissingReactionMirror(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)
	ctx := context.Background()

	profile := f.profile(t)
	community := f.community(t, profile.ID, "c")
	post := f.post(t, profile.ID, community.ID)

	// The profile claims a like the post never recorded.
	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldLikedPosts, post.ID))

	err := auditor.CheckProfile(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestAuditorDetectsMutualExclusionBreach(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)
	ctx := context.Background()

	profile := f.profile(t)
	community := f.community(t, profile.ID, "c")
	post := f.post(t, profile.ID, community.ID)

	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldLikedPosts, post.ID))
	require.NoError(t, f.store.AddToSet(ctx, store.KindPost, post.ID, store.FieldLikes, profile.ID))
	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldDislikedPosts, post.ID))
	require.NoError(t, f.store.AddToSet(ctx, store.KindPost, post.ID, store.FieldDislikes, profile.ID))

	err := auditor.CheckProfile(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestAuditorDetectsMissingFollowerMirror(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)
	ctx := context.Background()

	owner := f.profile(t)
	profile := f.profile(t)
	community := f.community(t, owner.ID, "c")

	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldFollowedCommunities, community.ID))

	err := auditor.CheckProfile(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestAuditorSkipsDanglingRefs(t *testing.T) {
	f := newFixture()
	auditor := NewAuditor(f.store)
	ctx := context.Background()

	profile := f.profile(t)

	// References to deleted entities are a cleanup matter, not corruption.
	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldLikedPosts, primitive.NewObjectID()))
	require.NoError(t, f.store.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldFollowedCommunities, primitive.NewObjectID()))

	assert.NoError(t, auditor.CheckProfile(ctx, profile.ID))
}
