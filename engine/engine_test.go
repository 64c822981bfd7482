package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
	"commons/store"
)

// Shared fixtures for the engine tests, all running against the in-memory
// store.

type fixture struct {
	store    *store.Memory
	entities *Entities
}

func newFixture() *fixture {
	s := store.NewMemory()
	return &fixture{store: s, entities: NewEntities(s)}
}

func (f *fixture) profile(t *testing.T) *models.Profile {
	t.Helper()
	profile := models.NewProfile(primitive.NewObjectID())
	require.NoError(t, f.store.InsertProfile(context.Background(), profile))
	return profile
}

func (f *fixture) community(t *testing.T, owner primitive.ObjectID, name string) *models.Community {
	t.Helper()
	community, err := f.entities.CreateCommunity(context.Background(), &models.Community{
		Name:        name,
		Description: "a place",
		Owner:       owner,
	})
	require.NoError(t, err)
	return community
}

func (f *fixture) post(t *testing.T, author, community primitive.ObjectID) *models.Post {
	t.Helper()
	post, err := f.entities.CreatePost(context.Background(), &models.Post{
		Title:     "a title",
		Body:      "a body",
		Author:    author,
		Community: community,
	})
	require.NoError(t, err)
	return post
}

func (f *fixture) comment(t *testing.T, author, post primitive.ObjectID, parent *primitive.ObjectID) *models.Comment {
	t.Helper()
	comment, err := f.entities.CreateComment(context.Background(), &models.Comment{
		Profile: author,
		Body:    "a comment",
		Post:    post,
	}, parent)
	require.NoError(t, err)
	return comment
}

func (f *fixture) reloadProfile(t *testing.T, id primitive.ObjectID) *models.Profile {
	t.Helper()
	profile, err := f.store.Profile(context.Background(), id)
	require.NoError(t, err)
	return profile
}

func (f *fixture) reloadPost(t *testing.T, id primitive.ObjectID) *models.Post {
	t.Helper()
	post, err := f.store.Post(context.Background(), id)
	require.NoError(t, err)
	return post
}

func (f *fixture) reloadComment(t *testing.T, id primitive.ObjectID) *models.Comment {
	t.Helper()
	comment, err := f.store.Comment(context.Background(), id)
	require.NoError(t, err)
	return comment
}

func (f *fixture) reloadCommunity(t *testing.T, id primitive.ObjectID) *models.Community {
	t.Helper()
	community, err := f.store.Community(context.Background(), id)
	require.NoError(t, err)
	return community
}
