package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commons/store"
)

func TestFollowToggleRoundTrip(t *testing.T) {
	f := newFixture()
	follows := NewFollows(f.store)
	ctx := context.Background()

	owner := f.profile(t)
	follower := f.profile(t)
	community := f.community(t, owner.ID, "gardening")

	result, err := follows.Toggle(ctx, follower.ID, "gardening")
	require.NoError(t, err)
	assert.Equal(t, &FollowResult{Followed: true, Community: "gardening"}, result)
	assert.True(t, f.reloadProfile(t, follower.ID).FollowedCommunities.Has(community.ID))
	assert.True(t, f.reloadCommunity(t, community.ID).Followers.Has(follower.ID))

	result, err = follows.Toggle(ctx, follower.ID, "gardening")
	require.NoError(t, err)
	assert.Equal(t, &FollowResult{Followed: false, Community: "gardening"}, result)
	assert.Empty(t, f.reloadProfile(t, follower.ID).FollowedCommunities)
	assert.Empty(t, f.reloadCommunity(t, community.ID).Followers)
}

func TestFollowResolvesNameCaseInsensitively(t *testing.T) {
	f := newFixture()
	follows := NewFollows(f.store)

	owner := f.profile(t)
	follower := f.profile(t)
	community := f.community(t, owner.ID, "Gardening")

	result, err := follows.Toggle(context.Background(), follower.ID, "gArDeNiNg")
	require.NoError(t, err)
	assert.True(t, result.Followed)
	// The canonical name comes back, not the caller's spelling.
	assert.Equal(t, "Gardening", result.Community)
	assert.True(t, f.reloadCommunity(t, community.ID).Followers.Has(follower.ID))
}

func TestFollowUnknownCommunity(t *testing.T) {
	f := newFixture()
	follows := NewFollows(f.store)

	follower := f.profile(t)
	_, err := follows.Toggle(context.Background(), follower.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowMirrorDisagreementDetected(t *testing.T) {
	f := newFixture()
	follows := NewFollows(f.store)
	ctx := context.Background()

	owner := f.profile(t)
	follower := f.profile(t)
	community := f.community(t, owner.ID, "gardening")

	require.NoError(t, f.store.AddToSet(ctx, store.KindCommunity, community.ID, store.FieldFollowers, follower.ID))

	_, err := follows.Toggle(ctx, follower.ID, "gardening")
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
