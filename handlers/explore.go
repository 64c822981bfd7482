package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"commons/models"
)

const searchLimit = 10

// Explore searches communities, posts and comments by a case-insensitive
// substring, up to a fixed number of matches per kind.
func Explore(c *gin.Context) {
	query := c.Query("search")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"communities": []gin.H{}, "posts": []gin.H{}, "comments": []gin.H{}})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	results, err := db.Search(ctx, query, searchLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"communities": lo.Map(results.Communities, func(community models.Community, _ int) gin.H {
			return gin.H{"name": community.Name, "communityIcon": community.CommunityIcon}
		}),
		"posts": lo.Map(results.Posts, func(post models.Post, _ int) gin.H {
			return gin.H{"id": post.ID, "title": post.Title, "community": post.Community, "created": post.Created}
		}),
		"comments": lo.Map(results.Comments, func(comment models.Comment, _ int) gin.H {
			return gin.H{"id": comment.ID, "body": comment.Body, "post": comment.Post, "created": comment.Created}
		}),
	})
}
