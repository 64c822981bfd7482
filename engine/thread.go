package engine

import (
	"context"
	"iter"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
	"commons/store"
)

// DefaultMaxDepth bounds reply-tree materialization when the caller does
// not ask for a specific depth.
const DefaultMaxDepth = 6

// ThreadOptions tunes one materialization.
type ThreadOptions struct {
	// MaxDepth is the remaining-depth budget below the root; nodes at the
	// boundary come back with empty Replies, deeper data is not fetched.
	MaxDepth int
	// OrderByPopularity sorts sibling groups by likes-dislikes descending
	// instead of creation order.
	OrderByPopularity bool
}

func (o ThreadOptions) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Node is one annotated comment in a materialized reply tree. Replies is
// never nil; it is empty at leaves and at the depth boundary.
type Node struct {
	ID            primitive.ObjectID `json:"id"`
	Profile       primitive.ObjectID `json:"profile"`
	Body          string             `json:"body"`
	Created       int64              `json:"created"`
	IsReply       bool               `json:"isReply"`
	Likes         int                `json:"likes"`
	Dislikes      int                `json:"dislikes"`
	ReactionScore int                `json:"reactionScore"`
	Replies       []*Node            `json:"replies"`
}

// All walks the subtree rooted at n depth-first, as a lazy one-shot
// sequence.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, reply := range n.Replies {
		if !reply.walk(yield) {
			return false
		}
	}
	return true
}

// PostThread is a post with its flattened reaction counts, the viewer's
// reaction state, and the materialized top-level comment tree.
type PostThread struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Body          string             `json:"body"`
	Author        primitive.ObjectID `json:"author"`
	Community     primitive.ObjectID `json:"community"`
	Created       int64              `json:"created"`
	Likes         int                `json:"likes"`
	Dislikes      int                `json:"dislikes"`
	ReactionScore int                `json:"reactionScore"`
	CommentCount  int                `json:"commentCount"`
	Comments      []*Node            `json:"comments"`
}

// Threads assembles read-only reply trees. Every call re-reads current
// state; nothing is cached between materializations.
type Threads struct {
	store store.Store
}

func NewThreads(s store.Store) *Threads {
	return &Threads{store: s}
}

// Post materializes a post with its top-level comments. A nil viewer means
// every reaction score comes back 0.
func (t *Threads) Post(ctx context.Context, postID primitive.ObjectID, viewerProfileID *primitive.ObjectID, opts ThreadOptions) (*PostThread, error) {
	post, err := t.store.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	viewer, err := t.viewer(ctx, viewerProfileID)
	if err != nil {
		return nil, err
	}

	comments, err := t.store.CommentsByIDs(ctx, post.Comments)
	if err != nil {
		return nil, err
	}
	// post.Comments holds the whole tree flat; only roots start a branch.
	topLevel := comments[:0]
	for _, comment := range comments {
		if !comment.IsReply {
			topLevel = append(topLevel, comment)
		}
	}
	nodes, err := t.buildSiblings(ctx, topLevel, viewer, opts, opts.maxDepth())
	if err != nil {
		return nil, err
	}

	return &PostThread{
		ID:            post.ID,
		Title:         post.Title,
		Body:          post.Body,
		Author:        post.Author,
		Community:     post.Community,
		Created:       post.Created,
		Likes:         len(post.Likes),
		Dislikes:      len(post.Dislikes),
		ReactionScore: Score(viewer, TargetPost, post.ID),
		CommentCount:  len(post.Comments),
		Comments:      nodes,
	}, nil
}

// Comment materializes a single sub-thread rooted at one comment.
func (t *Threads) Comment(ctx context.Context, commentID primitive.ObjectID, viewerProfileID *primitive.ObjectID, opts ThreadOptions) (*Node, error) {
	comment, err := t.store.Comment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	viewer, err := t.viewer(ctx, viewerProfileID)
	if err != nil {
		return nil, err
	}
	return t.buildNode(ctx, *comment, viewer, opts, opts.maxDepth())
}

func (t *Threads) viewer(ctx context.Context, viewerProfileID *primitive.ObjectID) (*models.Profile, error) {
	if viewerProfileID == nil {
		return nil, nil
	}
	return t.store.Profile(ctx, *viewerProfileID)
}

// buildNode annotates one comment and descends into its replies while
// budget remains. At zero budget the node is returned with empty Replies;
// running out of depth is not an error.
func (t *Threads) buildNode(ctx context.Context, comment models.Comment, viewer *models.Profile, opts ThreadOptions, budget int) (*Node, error) {
	node := &Node{
		ID:            comment.ID,
		Profile:       comment.Profile,
		Body:          comment.Body,
		Created:       comment.Created,
		IsReply:       comment.IsReply,
		Likes:         len(comment.Likes),
		Dislikes:      len(comment.Dislikes),
		ReactionScore: Score(viewer, TargetComment, comment.ID),
		Replies:       []*Node{},
	}
	if budget == 0 || len(comment.Replies) == 0 {
		return node, nil
	}

	replies, err := t.store.CommentsByIDs(ctx, comment.Replies)
	if err != nil {
		return nil, err
	}
	node.Replies, err = t.buildSiblings(ctx, replies, viewer, opts, budget-1)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (t *Threads) buildSiblings(ctx context.Context, comments []models.Comment, viewer *models.Profile, opts ThreadOptions, budget int) ([]*Node, error) {
	nodes := make([]*Node, 0, len(comments))
	for _, comment := range comments {
		node, err := t.buildNode(ctx, comment, viewer, opts, budget)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	orderSiblings(nodes, opts)
	return nodes, nil
}

func orderSiblings(nodes []*Node, opts ThreadOptions) {
	if opts.OrderByPopularity {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].Likes-nodes[i].Dislikes > nodes[j].Likes-nodes[j].Dislikes
		})
		return
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Created < nodes[j].Created
	})
}
