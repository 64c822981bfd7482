package engine

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
	"commons/store"
)

// Action is a reaction toggle request. Anything else is rejected with
// ErrInvalidAction.
type Action string

const (
	ToggleLike    Action = "TOGGLE_LIKE"
	ToggleDislike Action = "TOGGLE_DISLIKE"
)

// TargetKind selects which entity a reaction applies to.
type TargetKind string

const (
	TargetPost    TargetKind = "POST"
	TargetComment TargetKind = "COMMENT"
)

// Reaction score encoding.
const (
	ScoreLiked    = 1
	ScoreDisliked = -1
	ScoreNone     = 0
)

// ReactionResult reports the target's post-transition counts and the acting
// profile's resulting state.
type ReactionResult struct {
	Likes         int `json:"likes"`
	Dislikes      int `json:"dislikes"`
	ReactionScore int `json:"reactionScore"`
}

// Reactions applies the tri-state like/dislike toggle to posts and
// comments. Each transition mutates up to four sets (likes/dislikes on the
// target, likedX/dislikedX on the profile) as one atomic unit, keeping
// both sides in agreement.
type Reactions struct {
	store store.Store
	locks pairLocks
}

func NewReactions(s store.Store) *Reactions {
	return &Reactions{store: s}
}

// reactionFields maps a target kind to its store coordinates.
type reactionFields struct {
	kind           store.Kind
	profileLike    store.Field
	profileDislike store.Field
}

func fieldsFor(kind TargetKind) (reactionFields, error) {
	switch kind {
	case TargetPost:
		return reactionFields{store.KindPost, store.FieldLikedPosts, store.FieldDislikedPosts}, nil
	case TargetComment:
		return reactionFields{store.KindComment, store.FieldLikedComments, store.FieldDislikedComments}, nil
	default:
		return reactionFields{}, fmt.Errorf("%w: target kind %q", ErrInvalidAction, kind)
	}
}

// Toggle runs one state machine transition for (profile, target).
//
//	NONE     --like--> LIKED        NONE     --dislike--> DISLIKED
//	LIKED    --like--> NONE         LIKED    --dislike--> DISLIKED
//	DISLIKED --like--> LIKED        DISLIKED --dislike--> NONE
func (r *Reactions) Toggle(ctx context.Context, profileID primitive.ObjectID, targetKind TargetKind, targetID primitive.ObjectID, action Action) (*ReactionResult, error) {
	if action != ToggleLike && action != ToggleDislike {
		return nil, fmt.Errorf("%w: action %q", ErrInvalidAction, action)
	}
	fields, err := fieldsFor(targetKind)
	if err != nil {
		return nil, err
	}

	defer r.locks.lock(profileID, targetID)()

	var result *ReactionResult
	err = r.store.Atomic(ctx, func(ctx context.Context) error {
		profile, err := r.store.Profile(ctx, profileID)
		if err != nil {
			return err
		}
		likes, dislikes, err := r.targetSets(ctx, fields.kind, targetID)
		if err != nil {
			return err
		}

		liked := likes.Has(profileID)
		disliked := dislikes.Has(profileID)
		if err := checkMirror(profile, targetID, fields, liked, disliked); err != nil {
			return err
		}

		likeCount := len(likes)
		dislikeCount := len(dislikes)
		score := ScoreNone

		switch {
		case action == ToggleLike && liked:
			// LIKED -> NONE
			if err := r.unreact(ctx, fields, profileID, targetID, false); err != nil {
				return err
			}
			likeCount--
		case action == ToggleLike:
			// NONE/DISLIKED -> LIKED
			if disliked {
				if err := r.unreact(ctx, fields, profileID, targetID, true); err != nil {
					return err
				}
				dislikeCount--
			}
			if err := r.react(ctx, fields, profileID, targetID, false); err != nil {
				return err
			}
			likeCount++
			score = ScoreLiked
		case disliked:
			// DISLIKED -> NONE
			if err := r.unreact(ctx, fields, profileID, targetID, true); err != nil {
				return err
			}
			dislikeCount--
		default:
			// NONE/LIKED -> DISLIKED
			if liked {
				if err := r.unreact(ctx, fields, profileID, targetID, false); err != nil {
					return err
				}
				likeCount--
			}
			if err := r.react(ctx, fields, profileID, targetID, true); err != nil {
				return err
			}
			dislikeCount++
			score = ScoreDisliked
		}

		result = &ReactionResult{Likes: likeCount, Dislikes: dislikeCount, ReactionScore: score}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Score is the read-only membership probe used by view assembly: 1 if the
// profile likes the target, -1 if it dislikes it, 0 otherwise.
func Score(profile *models.Profile, targetKind TargetKind, targetID primitive.ObjectID) int {
	if profile == nil {
		return ScoreNone
	}
	var liked, disliked models.RefSet
	if targetKind == TargetPost {
		liked, disliked = profile.LikedPosts, profile.DislikedPosts
	} else {
		liked, disliked = profile.LikedComments, profile.DislikedComments
	}
	switch {
	case liked.Has(targetID):
		return ScoreLiked
	case disliked.Has(targetID):
		return ScoreDisliked
	default:
		return ScoreNone
	}
}

func (r *Reactions) targetSets(ctx context.Context, kind store.Kind, targetID primitive.ObjectID) (models.RefSet, models.RefSet, error) {
	if kind == store.KindPost {
		post, err := r.store.Post(ctx, targetID)
		if err != nil {
			return nil, nil, err
		}
		return post.Likes, post.Dislikes, nil
	}
	comment, err := r.store.Comment(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	return comment.Likes, comment.Dislikes, nil
}

// react adds both sides of a reaction; unreact removes both sides.
func (r *Reactions) react(ctx context.Context, fields reactionFields, profileID, targetID primitive.ObjectID, dislike bool) error {
	targetField, profileField := store.FieldLikes, fields.profileLike
	if dislike {
		targetField, profileField = store.FieldDislikes, fields.profileDislike
	}
	if err := r.store.AddToSet(ctx, fields.kind, targetID, targetField, profileID); err != nil {
		return err
	}
	return r.store.AddToSet(ctx, store.KindProfile, profileID, profileField, targetID)
}

func (r *Reactions) unreact(ctx context.Context, fields reactionFields, profileID, targetID primitive.ObjectID, dislike bool) error {
	targetField, profileField := store.FieldLikes, fields.profileLike
	if dislike {
		targetField, profileField = store.FieldDislikes, fields.profileDislike
	}
	if err := r.store.Pull(ctx, fields.kind, targetID, targetField, profileID); err != nil {
		return err
	}
	return r.store.Pull(ctx, store.KindProfile, profileID, profileField, targetID)
}

// checkMirror verifies mutual exclusion and mirror agreement for the pair
// before mutating. Any disagreement means a previous unit half-applied,
// which only a repair pass can fix.
func checkMirror(profile *models.Profile, targetID primitive.ObjectID, fields reactionFields, liked, disliked bool) error {
	if liked && disliked {
		return fmt.Errorf("%w: target %s in both likes and dislikes", ErrInvariantViolation, targetID.Hex())
	}
	profileLiked := profileSet(profile, fields.profileLike).Has(targetID)
	profileDisliked := profileSet(profile, fields.profileDislike).Has(targetID)
	if profileLiked != liked || profileDisliked != disliked {
		return fmt.Errorf("%w: reaction mirror disagrees for target %s", ErrInvariantViolation, targetID.Hex())
	}
	return nil
}

func profileSet(profile *models.Profile, field store.Field) models.RefSet {
	switch field {
	case store.FieldLikedPosts:
		return profile.LikedPosts
	case store.FieldDislikedPosts:
		return profile.DislikedPosts
	case store.FieldLikedComments:
		return profile.LikedComments
	case store.FieldDislikedComments:
		return profile.DislikedComments
	}
	return nil
}
