package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/engine"
	"commons/models"
)

type CreatePostRequest struct {
	Title     string `json:"title" binding:"required,min=2"`
	Body      string `json:"body" binding:"required,min=2"`
	Community string `json:"community" binding:"required"`
}

func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}
	community, err := db.CommunityByName(ctx, req.Community)
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := entities.CreatePost(ctx, &models.Post{
		Title:     req.Title,
		Body:      req.Body,
		Author:    profile.ID,
		Community: community.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPost materializes the post with its bounded-depth comment tree,
// annotated for the viewer when one is logged in.
func GetPost(c *gin.Context) {
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	opts := threadOptions(c)
	thread, err := threads.Post(ctx, postID, viewerProfileID(ctx, c), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, thread)
}

// CommentThread materializes a single sub-thread rooted at one comment.
func CommentThread(c *gin.Context) {
	commentID, ok := objectIDParam(c, "commentId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	node, err := threads.Comment(ctx, commentID, viewerProfileID(ctx, c), threadOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, node)
}

func DeletePost(c *gin.Context) {
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}
	post, err := db.Post(ctx, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	if post.Author != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the author of this post"})
		return
	}

	if err := entities.DeletePost(ctx, postID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

type CreateCommentRequest struct {
	Body   string `json:"body" binding:"required,min=2"`
	Parent string `json:"parent,omitempty"`
}

func CreateComment(c *gin.Context) {
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var parent *primitive.ObjectID
	if req.Parent != "" {
		parentID, err := primitive.ObjectIDFromHex(req.Parent)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent comment id"})
			return
		}
		parent = &parentID
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := entities.CreateComment(ctx, &models.Comment{
		Profile: profile.ID,
		Body:    req.Body,
		Post:    postID,
	}, parent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func DeleteComment(c *gin.Context) {
	commentID, ok := objectIDParam(c, "commentId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}
	comment, err := db.Comment(ctx, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if comment.Profile != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the author of this comment"})
		return
	}

	if err := entities.DeleteComment(ctx, commentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

type ReactionRequest struct {
	Action string `json:"action" binding:"required"`
}

// TogglePostReaction applies one like/dislike transition to a post.
func TogglePostReaction(c *gin.Context) {
	toggleReaction(c, engine.TargetPost, "id")
}

// ToggleCommentReaction applies one like/dislike transition to a comment.
func ToggleCommentReaction(c *gin.Context) {
	toggleReaction(c, engine.TargetComment, "commentId")
}

func toggleReaction(c *gin.Context, kind engine.TargetKind, param string) {
	targetID, ok := objectIDParam(c, param)
	if !ok {
		return
	}
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := reactions.Toggle(ctx, profile.ID, kind, targetID, engine.Action(req.Action))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func threadOptions(c *gin.Context) engine.ThreadOptions {
	opts := engine.ThreadOptions{
		OrderByPopularity: c.Query("sort") == "popular",
	}
	if depth, err := strconv.Atoi(c.Query("maxDepth")); err == nil && depth > 0 && depth <= engine.DefaultMaxDepth {
		opts.MaxDepth = depth
	}
	return opts
}

func viewerProfileID(ctx context.Context, c *gin.Context) *primitive.ObjectID {
	profile := viewerProfile(ctx, c)
	if profile == nil {
		return nil
	}
	return &profile.ID
}
