package engine

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
	"commons/store"
)

// Auditor is the read-side reconciliation probe: it walks a profile's
// mirrored relationships and reports the first disagreement as an
// ErrInvariantViolation. Detected divergence signals a repair job; the
// auditor itself never mutates.
type Auditor struct {
	store store.Store
}

func NewAuditor(s store.Store) *Auditor {
	return &Auditor{store: s}
}

// CheckProfile verifies the symmetry, mutual-exclusion, ownership and
// follow invariants for one profile against every entity it references.
// References to deleted entities are skipped; a dangling ref is a cleanup
// matter, not a mirror disagreement.
func (a *Auditor) CheckProfile(ctx context.Context, profileID primitive.ObjectID) error {
	profile, err := a.store.Profile(ctx, profileID)
	if err != nil {
		return err
	}

	if err := a.checkPostReactions(ctx, profile); err != nil {
		return err
	}
	if err := a.checkCommentReactions(ctx, profile); err != nil {
		return err
	}
	if err := a.checkOwnership(ctx, profile); err != nil {
		return err
	}
	return a.checkFollows(ctx, profile)
}

func (a *Auditor) checkPostReactions(ctx context.Context, profile *models.Profile) error {
	for _, postID := range profile.LikedPosts {
		if profile.DislikedPosts.Has(postID) {
			return violation("post %s both liked and disliked by %s", postID, profile.ID)
		}
		post, err := a.store.Post(ctx, postID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !post.Likes.Has(profile.ID) {
			return violation("post %s missing like mirror for %s", postID, profile.ID)
		}
	}
	for _, postID := range profile.DislikedPosts {
		post, err := a.store.Post(ctx, postID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !post.Dislikes.Has(profile.ID) {
			return violation("post %s missing dislike mirror for %s", postID, profile.ID)
		}
	}
	return nil
}

func (a *Auditor) checkCommentReactions(ctx context.Context, profile *models.Profile) error {
	for _, commentID := range profile.LikedComments {
		if profile.DislikedComments.Has(commentID) {
			return violation("comment %s both liked and disliked by %s", commentID, profile.ID)
		}
		comment, err := a.store.Comment(ctx, commentID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !comment.Likes.Has(profile.ID) {
			return violation("comment %s missing like mirror for %s", commentID, profile.ID)
		}
	}
	for _, commentID := range profile.DislikedComments {
		comment, err := a.store.Comment(ctx, commentID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !comment.Dislikes.Has(profile.ID) {
			return violation("comment %s missing dislike mirror for %s", commentID, profile.ID)
		}
	}
	return nil
}

func (a *Auditor) checkOwnership(ctx context.Context, profile *models.Profile) error {
	for _, postID := range profile.Posts {
		post, err := a.store.Post(ctx, postID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if post.Author != profile.ID {
			return violation("post %s not authored by %s", postID, profile.ID)
		}
	}
	for _, commentID := range profile.Comments {
		comment, err := a.store.Comment(ctx, commentID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if comment.Profile != profile.ID {
			return violation("comment %s not authored by %s", commentID, profile.ID)
		}
	}
	for _, communityID := range profile.OwnedCommunities {
		community, err := a.store.Community(ctx, communityID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if community.Owner != profile.ID {
			return violation("community %s not owned by %s", communityID, profile.ID)
		}
	}
	return nil
}

func (a *Auditor) checkFollows(ctx context.Context, profile *models.Profile) error {
	for _, communityID := range profile.FollowedCommunities {
		community, err := a.store.Community(ctx, communityID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !community.Followers.Has(profile.ID) {
			return violation("community %s missing follower mirror for %s", communityID, profile.ID)
		}
	}
	return nil
}

func violation(format string, ids ...primitive.ObjectID) error {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id.Hex()
	}
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
