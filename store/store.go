package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
)

var (
	// ErrNotFound is returned by point lookups and set mutations when the
	// addressed document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflictingWrite is returned when the atomicity mechanism aborts a
	// unit because of a concurrent mutation. Safe to retry.
	ErrConflictingWrite = errors.New("store: conflicting write")
)

// Kind names an entity collection.
type Kind string

const (
	KindAccount   Kind = "accounts"
	KindProfile   Kind = "profiles"
	KindCommunity Kind = "communities"
	KindPost      Kind = "posts"
	KindComment   Kind = "comments"
)

// Field names a reference set on a document. Values are the bson field
// names, so the Mongo implementation can use them directly in updates.
type Field string

const (
	FieldOwnedCommunities    Field = "ownedCommunities"
	FieldFollowedCommunities Field = "followedCommunities"
	FieldPosts               Field = "posts"
	FieldComments            Field = "comments"
	FieldLikedPosts          Field = "likedPosts"
	FieldDislikedPosts       Field = "dislikedPosts"
	FieldLikedComments       Field = "likedComments"
	FieldDislikedComments    Field = "dislikedComments"
	FieldSaved               Field = "saved"
	FieldFollowers           Field = "followers"
	FieldLikes               Field = "likes"
	FieldDislikes            Field = "dislikes"
	FieldReplies             Field = "replies"
)

// ProfileUpdate carries the editable profile fields. Nil pointers are left
// untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Biography  *string
	ProfileImg *string
}

// SearchResults is the explore query response: up to a fixed number of
// matches per entity kind.
type SearchResults struct {
	Communities []models.Community
	Posts       []models.Post
	Comments    []models.Comment
}

// Store persists the platform's entities. Point lookups return ErrNotFound
// for missing documents; set mutations are idempotent per RefSet semantics.
//
// Atomic runs fn as one atomic unit: either every write inside fn becomes
// visible or none does. The context passed to fn must be used for all store
// calls made within the unit.
type Store interface {
	InsertAccount(ctx context.Context, account *models.Account) error
	Account(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)

	InsertProfile(ctx context.Context, profile *models.Profile) error
	Profile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	ProfileByAccount(ctx context.Context, accountID primitive.ObjectID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) error

	InsertCommunity(ctx context.Context, community *models.Community) error
	Community(ctx context.Context, id primitive.ObjectID) (*models.Community, error)
	CommunityByName(ctx context.Context, name string) (*models.Community, error)
	DeleteCommunity(ctx context.Context, id primitive.ObjectID) error
	PopularCommunities(ctx context.Context, skip, limit int) ([]models.Community, error)

	InsertPost(ctx context.Context, post *models.Post) error
	Post(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error

	InsertComment(ctx context.Context, comment *models.Comment) error
	Comment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	CommentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id primitive.ObjectID) error

	AddToSet(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error
	Pull(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error

	Search(ctx context.Context, query string, limit int) (*SearchResults, error)

	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}
