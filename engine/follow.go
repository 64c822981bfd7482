package engine

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/store"
)

// FollowResult reports the state after a follow toggle.
type FollowResult struct {
	Followed  bool   `json:"followed"`
	Community string `json:"community"`
}

// Follows is the binary Profile<->Community follow toggle: the reaction
// machine specialized to two states, mutating both mirror sets as one unit.
type Follows struct {
	store store.Store
	locks pairLocks
}

func NewFollows(s store.Store) *Follows {
	return &Follows{store: s}
}

// Toggle resolves the community by case-insensitive exact name and flips
// the follow relationship. Unknown names are a not-found error, not a
// silent no-op.
func (f *Follows) Toggle(ctx context.Context, profileID primitive.ObjectID, communityName string) (*FollowResult, error) {
	community, err := f.store.CommunityByName(ctx, communityName)
	if err != nil {
		return nil, err
	}

	defer f.locks.lock(profileID, community.ID)()

	var result *FollowResult
	err = f.store.Atomic(ctx, func(ctx context.Context) error {
		profile, err := f.store.Profile(ctx, profileID)
		if err != nil {
			return err
		}
		community, err := f.store.Community(ctx, community.ID)
		if err != nil {
			return err
		}

		following := profile.FollowedCommunities.Has(community.ID)
		if community.Followers.Has(profileID) != following {
			return fmt.Errorf("%w: follow mirror disagrees for community %q", ErrInvariantViolation, community.Name)
		}

		if following {
			if err := f.store.Pull(ctx, store.KindProfile, profileID, store.FieldFollowedCommunities, community.ID); err != nil {
				return err
			}
			if err := f.store.Pull(ctx, store.KindCommunity, community.ID, store.FieldFollowers, profileID); err != nil {
				return err
			}
		} else {
			if err := f.store.AddToSet(ctx, store.KindProfile, profileID, store.FieldFollowedCommunities, community.ID); err != nil {
				return err
			}
			if err := f.store.AddToSet(ctx, store.KindCommunity, community.ID, store.FieldFollowers, profileID); err != nil {
				return err
			}
		}

		result = &FollowResult{Followed: !following, Community: community.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
