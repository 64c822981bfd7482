package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/apis"
	"commons/engine"
	"commons/models"
	"commons/store"
)

// GetMyProfile returns the private profile view: editable fields plus set
// sizes rather than raw reference lists.
func GetMyProfile(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := db.Account(ctx, profile.Account)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":       account.Username,
		"accountCreated": account.Joined,
		"profile": gin.H{
			"firstName":           profile.FirstName,
			"lastName":            profile.LastName,
			"biography":           profile.Biography,
			"profileImg":          profile.ProfileImg,
			"posts":               len(profile.Posts),
			"comments":            len(profile.Comments),
			"ownedCommunities":    len(profile.OwnedCommunities),
			"followedCommunities": len(profile.FollowedCommunities),
			"likedPosts":          len(profile.LikedPosts),
			"dislikedPosts":       len(profile.DislikedPosts),
			"likedComments":       len(profile.LikedComments),
			"dislikedComments":    len(profile.DislikedComments),
			"saved":               len(profile.Saved),
		},
	})
}

// GetPublicProfile returns another user's profile page with their posts
// annotated for the viewer.
func GetPublicProfile(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	account, err := db.AccountByUsername(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	profile, err := db.Profile(ctx, account.Profile)
	if err != nil {
		respondError(c, err)
		return
	}
	viewer := viewerProfile(ctx, c)

	posts := make([]*models.Post, 0, len(profile.Posts))
	for _, postID := range profile.Posts {
		post, err := db.Post(ctx, postID)
		if err != nil {
			continue
		}
		posts = append(posts, post)
	}

	postViews := lo.Map(posts, func(post *models.Post, _ int) gin.H {
		return gin.H{
			"id":            post.ID,
			"title":         post.Title,
			"body":          post.Body,
			"likes":         len(post.Likes),
			"dislikes":      len(post.Dislikes),
			"comments":      len(post.Comments),
			"created":       post.Created,
			"reactionScore": engine.Score(viewer, engine.TargetPost, post.ID),
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"username":       account.Username,
		"accountCreated": account.Joined,
		"profile": gin.H{
			"firstName":  profile.FirstName,
			"lastName":   profile.LastName,
			"biography":  profile.Biography,
			"profileImg": profile.ProfileImg,
			"posts":      postViews,
		},
	})
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=20"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=20"`
	Biography *string `json:"biography" binding:"omitempty,max=450"`
}

func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
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

	err = db.UpdateProfile(ctx, profile.ID, store.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Biography: req.Biography,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// UploadAvatar replaces the profile image: the old Cloudinary asset is
// destroyed, the new one uploaded, and the profile updated.
func UploadAvatar(c *gin.Context) {
	if images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	file, header, err := c.Request.FormFile("profileImg")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profileImg file is required"})
		return
	}
	defer file.Close()

	if header.Size > 1<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be under 1MB"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}

	if profile.ProfileImg != models.DefaultProfileImg {
		if err := images.DestroyImage(ctx, profile.ProfileImg, apis.FolderProfilePictures); err != nil {
			respondError(c, err)
			return
		}
	}

	imgURL, err := images.UploadImage(ctx, file, apis.FolderProfilePictures)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := db.UpdateProfile(ctx, profile.ID, store.ProfileUpdate{ProfileImg: &imgURL}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profileImg": imgURL})
}

// ToggleSave bookmarks or unbookmarks a post on the current profile. The
// saved set is one-sided; nothing mirrors it on the post.
func ToggleSave(c *gin.Context) {
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
	if _, err := db.Post(ctx, postID); err != nil {
		respondError(c, err)
		return
	}

	saved := profile.Saved.Has(postID)
	if saved {
		err = db.Pull(ctx, store.KindProfile, profile.ID, store.FieldSaved, postID)
	} else {
		err = db.AddToSet(ctx, store.KindProfile, profile.ID, store.FieldSaved, postID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": !saved})
}

// SavedPosts lists the viewer's bookmarks, skipping posts deleted since
// they were saved and lazily cleaning those refs up.
func SavedPosts(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	profile, err := currentProfile(ctx, c)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(profile.Saved))
	var dangling []primitive.ObjectID
	for _, postID := range profile.Saved {
		post, err := db.Post(ctx, postID)
		if err != nil {
			dangling = append(dangling, postID)
			continue
		}
		views = append(views, gin.H{
			"id":      post.ID,
			"title":   post.Title,
			"created": post.Created,
		})
	}
	for _, postID := range dangling {
		if err := db.Pull(ctx, store.KindProfile, profile.ID, store.FieldSaved, postID); err != nil {
			log.Printf("saved ref cleanup failed for %s: %v", postID.Hex(), err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"saved": views})
}
