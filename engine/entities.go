package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
	"commons/store"
)

// Entities owns entity lifecycle: every create and delete runs the primary
// write and its ownership-mirror maintenance as one atomic unit, so callers
// never have to remember the other side of a relationship.
type Entities struct {
	store store.Store
}

func NewEntities(s store.Store) *Entities {
	return &Entities{store: s}
}

// CreateAccount inserts the account together with its blank profile. One
// profile per account, same lifetime.
func (e *Entities) CreateAccount(ctx context.Context, username, passwordHash string) (*models.Account, error) {
	_, err := e.store.AccountByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("%w: username %q", ErrDuplicate, username)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	account := &models.Account{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: passwordHash,
		Joined:       time.Now().Unix(),
	}
	profile := models.NewProfile(account.ID)
	account.Profile = profile.ID

	err = e.store.Atomic(ctx, func(ctx context.Context) error {
		if err := e.store.InsertAccount(ctx, account); err != nil {
			return err
		}
		return e.store.InsertProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateCommunity rejects a bad or case-insensitive duplicate name, then
// inserts the community and mirrors it into the owner's ownedCommunities.
func (e *Entities) CreateCommunity(ctx context.Context, community *models.Community) (*models.Community, error) {
	if n := utf8.RuneCountInString(community.Name); n < models.CommunityNameMin || n > models.CommunityNameMax {
		return nil, fmt.Errorf("%w: community name must be %d-%d characters", ErrInvalidAction, models.CommunityNameMin, models.CommunityNameMax)
	}
	_, err := e.store.CommunityByName(ctx, community.Name)
	if err == nil {
		return nil, fmt.Errorf("%w: community %q", ErrDuplicate, community.Name)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, err := e.store.Profile(ctx, community.Owner); err != nil {
		return nil, err
	}

	if community.ID.IsZero() {
		community.ID = primitive.NewObjectID()
	}
	if community.Created == 0 {
		community.Created = time.Now().Unix()
	}
	if community.Posts == nil {
		community.Posts = models.RefSet{}
	}
	if community.Followers == nil {
		community.Followers = models.RefSet{}
	}

	err = e.store.Atomic(ctx, func(ctx context.Context) error {
		if err := e.store.InsertCommunity(ctx, community); err != nil {
			return err
		}
		return e.store.AddToSet(ctx, store.KindProfile, community.Owner, store.FieldOwnedCommunities, community.ID)
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// DeleteCommunity removes the community and every mirror that points at it:
// the owner's ownedCommunities and each follower's followedCommunities.
// Posts under it are not cascaded; readers skip dangling refs.
func (e *Entities) DeleteCommunity(ctx context.Context, id primitive.ObjectID) error {
	return e.store.Atomic(ctx, func(ctx context.Context) error {
		community, err := e.store.Community(ctx, id)
		if err != nil {
			return err
		}
		if err := e.pullQuiet(ctx, store.KindProfile, community.Owner, store.FieldOwnedCommunities, id); err != nil {
			return err
		}
		for _, follower := range community.Followers {
			if err := e.pullQuiet(ctx, store.KindProfile, follower, store.FieldFollowedCommunities, id); err != nil {
				return err
			}
		}
		return e.store.DeleteCommunity(ctx, id)
	})
}

// CreatePost inserts the post and mirrors its id into the author profile's
// posts and the community's posts. Titles are stored lowercased.
func (e *Entities) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if _, err := e.store.Profile(ctx, post.Author); err != nil {
		return nil, err
	}
	if _, err := e.store.Community(ctx, post.Community); err != nil {
		return nil, err
	}

	post.Title = strings.ToLower(post.Title)
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Created == 0 {
		post.Created = time.Now().Unix()
	}
	if post.Likes == nil {
		post.Likes = models.RefSet{}
	}
	if post.Dislikes == nil {
		post.Dislikes = models.RefSet{}
	}
	if post.Comments == nil {
		post.Comments = models.RefSet{}
	}

	err := e.store.Atomic(ctx, func(ctx context.Context) error {
		if err := e.store.InsertPost(ctx, post); err != nil {
			return err
		}
		if err := e.store.AddToSet(ctx, store.KindProfile, post.Author, store.FieldPosts, post.ID); err != nil {
			return err
		}
		return e.store.AddToSet(ctx, store.KindCommunity, post.Community, store.FieldPosts, post.ID)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post, its reaction mirrors, its ownership mirrors,
// and cascades deletion of the whole comment tree underneath it.
func (e *Entities) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return e.store.Atomic(ctx, func(ctx context.Context) error {
		post, err := e.store.Post(ctx, id)
		if err != nil {
			return err
		}

		for _, commentID := range post.Comments {
			comment, err := e.store.Comment(ctx, commentID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			// Replies are also members of post.Comments; each gets removed
			// when its own turn comes, so no recursion here.
			if err := e.removeCommentMirrors(ctx, comment); err != nil {
				return err
			}
			if err := e.store.DeleteComment(ctx, commentID); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		for _, profileID := range post.Likes {
			if err := e.pullQuiet(ctx, store.KindProfile, profileID, store.FieldLikedPosts, id); err != nil {
				return err
			}
		}
		for _, profileID := range post.Dislikes {
			if err := e.pullQuiet(ctx, store.KindProfile, profileID, store.FieldDislikedPosts, id); err != nil {
				return err
			}
		}
		if err := e.pullQuiet(ctx, store.KindProfile, post.Author, store.FieldPosts, id); err != nil {
			return err
		}
		if err := e.pullQuiet(ctx, store.KindCommunity, post.Community, store.FieldPosts, id); err != nil {
			return err
		}
		return e.store.DeletePost(ctx, id)
	})
}

// CreateComment inserts the comment and mirrors it into the post's comments
// and the author profile's comments. With a parent it becomes a reply and is
// also added to the parent's replies set; every comment, reply or not, is a
// member of its post's comments set.
func (e *Entities) CreateComment(ctx context.Context, comment *models.Comment, parent *primitive.ObjectID) (*models.Comment, error) {
	if _, err := e.store.Profile(ctx, comment.Profile); err != nil {
		return nil, err
	}
	if _, err := e.store.Post(ctx, comment.Post); err != nil {
		return nil, err
	}
	if parent != nil {
		parentComment, err := e.store.Comment(ctx, *parent)
		if err != nil {
			return nil, err
		}
		if parentComment.Post != comment.Post {
			return nil, fmt.Errorf("%w: parent comment belongs to another post", ErrNotFound)
		}
	}

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.Created == 0 {
		comment.Created = time.Now().Unix()
	}
	if comment.Likes == nil {
		comment.Likes = models.RefSet{}
	}
	if comment.Dislikes == nil {
		comment.Dislikes = models.RefSet{}
	}
	if comment.Replies == nil {
		comment.Replies = models.RefSet{}
	}
	comment.IsReply = parent != nil
	comment.Parent = parent

	err := e.store.Atomic(ctx, func(ctx context.Context) error {
		if err := e.store.InsertComment(ctx, comment); err != nil {
			return err
		}
		if err := e.store.AddToSet(ctx, store.KindPost, comment.Post, store.FieldComments, comment.ID); err != nil {
			return err
		}
		if err := e.store.AddToSet(ctx, store.KindProfile, comment.Profile, store.FieldComments, comment.ID); err != nil {
			return err
		}
		if parent != nil {
			return e.store.AddToSet(ctx, store.KindComment, *parent, store.FieldReplies, comment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes the comment and its whole reply subtree, cleaning
// every mirror each node held.
func (e *Entities) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return e.store.Atomic(ctx, func(ctx context.Context) error {
		comment, err := e.store.Comment(ctx, id)
		if err != nil {
			return err
		}
		if comment.Parent != nil {
			if err := e.pullQuiet(ctx, store.KindComment, *comment.Parent, store.FieldReplies, id); err != nil {
				return err
			}
		}
		return e.deleteCommentTree(ctx, comment)
	})
}

// deleteCommentTree walks the reply subtree with an explicit worklist, so
// an arbitrarily deep chain cannot exhaust the stack mid-unit. Deletion
// order within the subtree does not matter: every node's mirrors are
// removed before the unit commits.
func (e *Entities) deleteCommentTree(ctx context.Context, root *models.Comment) error {
	worklist := []*models.Comment{root}
	for len(worklist) > 0 {
		comment := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, replyID := range comment.Replies {
			reply, err := e.store.Comment(ctx, replyID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			worklist = append(worklist, reply)
		}
		if err := e.removeCommentMirrors(ctx, comment); err != nil {
			return err
		}
		if err := e.store.DeleteComment(ctx, comment.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// removeCommentMirrors pulls the comment out of its post's and author's
// sets and clears reaction mirrors on both sides.
func (e *Entities) removeCommentMirrors(ctx context.Context, comment *models.Comment) error {
	if err := e.pullQuiet(ctx, store.KindPost, comment.Post, store.FieldComments, comment.ID); err != nil {
		return err
	}
	if err := e.pullQuiet(ctx, store.KindProfile, comment.Profile, store.FieldComments, comment.ID); err != nil {
		return err
	}
	for _, profileID := range comment.Likes {
		if err := e.pullQuiet(ctx, store.KindProfile, profileID, store.FieldLikedComments, comment.ID); err != nil {
			return err
		}
	}
	for _, profileID := range comment.Dislikes {
		if err := e.pullQuiet(ctx, store.KindProfile, profileID, store.FieldDislikedComments, comment.ID); err != nil {
			return err
		}
	}
	return nil
}

// pullQuiet removes a mirror reference, treating a missing parent document
// as already cleaned up.
func (e *Entities) pullQuiet(ctx context.Context, kind store.Kind, id primitive.ObjectID, field store.Field, member primitive.ObjectID) error {
	err := e.store.Pull(ctx, kind, id, field, member)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
