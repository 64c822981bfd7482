package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
)

func TestPostThreadBasics(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)
	top := f.comment(t, author.ID, post.ID, nil)
	reply := f.comment(t, author.ID, post.ID, &top.ID)

	thread, err := threads.Post(ctx, post.ID, nil, ThreadOptions{})
	require.NoError(t, err)

	assert.Equal(t, post.Title, thread.Title)
	// The reply counts toward the post total but only roots start branches.
	assert.Equal(t, 2, thread.CommentCount)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, top.ID, thread.Comments[0].ID)
	require.Len(t, thread.Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, thread.Comments[0].Replies[0].ID)
	assert.Empty(t, thread.Comments[0].Replies[0].Replies)
}

func TestPostThreadUnknownPost(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)

	_, err := threads.Post(context.Background(), primitive.NewObjectID(), nil, ThreadOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThreadDepthBudgetTruncates(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)

	// A chain of ten comments, each the sole reply of the previous one.
	chain := make([]*models.Comment, 10)
	chain[0] = f.comment(t, author.ID, post.ID, nil)
	for i := 1; i < 10; i++ {
		chain[i] = f.comment(t, author.ID, post.ID, &chain[i-1].ID)
	}

	thread, err := threads.Post(context.Background(), post.ID, nil, ThreadOptions{MaxDepth: 6})
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1)

	// Depths 0 through 6 are materialized; the boundary node has an empty,
	// non-nil reply list and nothing below it is fetched.
	node := thread.Comments[0]
	for depth := 0; depth < 6; depth++ {
		assert.Equal(t, chain[depth].ID, node.ID)
		require.Len(t, node.Replies, 1)
		node = node.Replies[0]
	}
	assert.Equal(t, chain[6].ID, node.ID)
	assert.NotNil(t, node.Replies)
	assert.Empty(t, node.Replies)
}

func TestThreadDefaultDepth(t *testing.T) {
	assert.Equal(t, DefaultMaxDepth, ThreadOptions{}.maxDepth())
	assert.Equal(t, DefaultMaxDepth, ThreadOptions{MaxDepth: -3}.maxDepth())
	assert.Equal(t, 2, ThreadOptions{MaxDepth: 2}.maxDepth())
}

func TestThreadViewerAnnotations(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)
	reactions := NewReactions(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)
	comment := f.comment(t, author.ID, post.ID, nil)
	viewer := f.profile(t)

	_, err := reactions.Toggle(ctx, viewer.ID, TargetPost, post.ID, ToggleLike)
	require.NoError(t, err)
	_, err = reactions.Toggle(ctx, viewer.ID, TargetComment, comment.ID, ToggleDislike)
	require.NoError(t, err)

	thread, err := threads.Post(ctx, post.ID, &viewer.ID, ThreadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, thread.Likes)
	assert.Equal(t, ScoreLiked, thread.ReactionScore)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, 1, thread.Comments[0].Dislikes)
	assert.Equal(t, ScoreDisliked, thread.Comments[0].ReactionScore)

	// Anonymous reads carry no reaction state.
	anonymous, err := threads.Post(ctx, post.ID, nil, ThreadOptions{})
	require.NoError(t, err)
	assert.Equal(t, ScoreNone, anonymous.ReactionScore)
	assert.Equal(t, ScoreNone, anonymous.Comments[0].ReactionScore)
}

func TestThreadSiblingOrdering(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)
	ctx := context.Background()

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)

	older, err := f.entities.CreateComment(ctx, &models.Comment{
		Profile: author.ID, Body: "older", Post: post.ID, Created: 100,
	}, nil)
	require.NoError(t, err)
	newer, err := f.entities.CreateComment(ctx, &models.Comment{
		Profile: author.ID, Body: "newer", Post: post.ID, Created: 200,
	}, nil)
	require.NoError(t, err)

	reactions := NewReactions(f.store)
	voter := f.profile(t)
	_, err = reactions.Toggle(ctx, voter.ID, TargetComment, newer.ID, ToggleLike)
	require.NoError(t, err)

	byTime, err := threads.Post(ctx, post.ID, nil, ThreadOptions{})
	require.NoError(t, err)
	require.Len(t, byTime.Comments, 2)
	assert.Equal(t, older.ID, byTime.Comments[0].ID)
	assert.Equal(t, newer.ID, byTime.Comments[1].ID)

	byVotes, err := threads.Post(ctx, post.ID, nil, ThreadOptions{OrderByPopularity: true})
	require.NoError(t, err)
	assert.Equal(t, newer.ID, byVotes.Comments[0].ID)
	assert.Equal(t, older.ID, byVotes.Comments[1].ID)
}

func TestCommentSubThread(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)
	root := f.comment(t, author.ID, post.ID, nil)
	child := f.comment(t, author.ID, post.ID, &root.ID)
	grandchild := f.comment(t, author.ID, post.ID, &child.ID)

	node, err := threads.Comment(context.Background(), child.ID, nil, ThreadOptions{})
	require.NoError(t, err)
	assert.Equal(t, child.ID, node.ID)
	assert.True(t, node.IsReply)
	require.Len(t, node.Replies, 1)
	assert.Equal(t, grandchild.ID, node.Replies[0].ID)
}

func TestNodeAllWalksDepthFirst(t *testing.T) {
	f := newFixture()
	threads := NewThreads(f.store)

	author := f.profile(t)
	community := f.community(t, author.ID, "c")
	post := f.post(t, author.ID, community.ID)
	root := f.comment(t, author.ID, post.ID, nil)
	first := f.comment(t, author.ID, post.ID, &root.ID)
	nested := f.comment(t, author.ID, post.ID, &first.ID)
	second := f.comment(t, author.ID, post.ID, &root.ID)

	node, err := threads.Comment(context.Background(), root.ID, nil, ThreadOptions{})
	require.NoError(t, err)

	var visited []primitive.ObjectID
	for n := range node.All() {
		visited = append(visited, n.ID)
	}
	assert.Equal(t, []primitive.ObjectID{root.ID, first.ID, nested.ID, second.ID}, visited)

	// Early break stops the walk.
	count := 0
	for range node.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
