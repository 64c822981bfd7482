package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/engine"
	"commons/models"
)

type CreateCommunityRequest struct {
	Name          string   `json:"name" binding:"required,min=1,max=15"`
	Description   string   `json:"description" binding:"required,min=2,max=300"`
	CommunityIcon string   `json:"communityIcon"`
	CommunityBG   string   `json:"communityBG"`
	Tags          []string `json:"tags"`
}

func CreateCommunity(c *gin.Context) {
	var req CreateCommunityRequest
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

	community, err := entities.CreateCommunity(ctx, &models.Community{
		Name:          req.Name,
		Description:   req.Description,
		CommunityIcon: req.CommunityIcon,
		CommunityBG:   req.CommunityBG,
		Tags:          req.Tags,
		Owner:         profile.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, community)
}

func DeleteCommunity(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}
	community, err := db.CommunityByName(ctx, c.Param("communityName"))
	if err != nil {
		respondError(c, err)
		return
	}
	if community.Owner != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the owner of this community"})
		return
	}

	if err := entities.DeleteCommunity(ctx, community.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Community deleted"})
}

// communityPostView is one post row on a community page, annotated with
// counts and the viewer's reaction state.
type communityPostView struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Body          string             `json:"body"`
	Likes         int                `json:"likes"`
	Dislikes      int                `json:"dislikes"`
	Comments      int                `json:"comments"`
	Created       int64              `json:"created"`
	ReactionScore int                `json:"reactionScore"`
}

// GetCommunity returns the community page: metadata, follower count, the
// viewer's follow state, and its posts with reaction annotations.
func GetCommunity(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	community, err := db.CommunityByName(ctx, c.Param("communityName"))
	if err != nil {
		respondError(c, err)
		return
	}
	viewer := viewerProfile(ctx, c)

	posts := make([]*models.Post, 0, len(community.Posts))
	for _, postID := range community.Posts {
		post, err := db.Post(ctx, postID)
		if err != nil {
			// Dangling ref after a delete; skip.
			continue
		}
		posts = append(posts, post)
	}

	views := lo.Map(posts, func(post *models.Post, _ int) communityPostView {
		return communityPostView{
			ID:            post.ID,
			Title:         post.Title,
			Body:          post.Body,
			Likes:         len(post.Likes),
			Dislikes:      len(post.Dislikes),
			Comments:      len(post.Comments),
			Created:       post.Created,
			ReactionScore: engine.Score(viewer, engine.TargetPost, post.ID),
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"name":             community.Name,
		"description":      community.Description,
		"communityIcon":    community.CommunityIcon,
		"communityBG":      community.CommunityBG,
		"tags":             community.Tags,
		"followers":        len(community.Followers),
		"followsCommunity": viewer != nil && viewer.FollowedCommunities.Has(community.ID),
		"created":          community.Created,
		"posts":            views,
	})
}

// PopularCommunities lists communities ordered by follower count.
func PopularCommunities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 20"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	viewer := viewerProfile(ctx, c)
	communities, err := db.PopularCommunities(ctx, (page-1)*limit, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := lo.Map(communities, func(community models.Community, _ int) gin.H {
		return gin.H{
			"name":             community.Name,
			"description":      community.Description,
			"communityIcon":    community.CommunityIcon,
			"communityBG":      community.CommunityBG,
			"followers":        len(community.Followers),
			"followsCommunity": viewer != nil && viewer.FollowedCommunities.Has(community.ID),
		}
	})

	c.JSON(http.StatusOK, views)
}

type FollowRequest struct {
	Community string `json:"community" binding:"required"`
}

// ToggleFollow flips the viewer's follow relationship with a community,
// resolved by case-insensitive name.
func ToggleFollow(c *gin.Context) {
	var req FollowRequest
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

	result, err := follows.Toggle(ctx, profile.ID, req.Community)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FollowedCommunities lists the names and icons of the communities the
// current profile follows.
func FollowedCommunities(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(profile.FollowedCommunities))
	for _, communityID := range profile.FollowedCommunities {
		community, err := db.Community(ctx, communityID)
		if err != nil {
			continue
		}
		views = append(views, gin.H{
			"name":          community.Name,
			"communityIcon": community.CommunityIcon,
		})
	}

	c.JSON(http.StatusOK, gin.H{"followedCommunities": views})
}
