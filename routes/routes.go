package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"commons/handlers"
	"commons/middleware"
)

func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes; soft auth attaches the viewer identity when present so
	// reads can annotate reaction and follow state.
	router.POST("/api/signup", middleware.RateLimit(), handlers.Signup)
	router.POST("/api/login", middleware.RateLimit(), handlers.Login)

	public := router.Group("/api")
	public.Use(middleware.JWTAuthSoft())
	public.GET("/explore", handlers.Explore)
	public.GET("/communities/popular", handlers.PopularCommunities)
	public.GET("/c/:communityName", handlers.GetCommunity)
	public.GET("/profiles/:username", handlers.GetPublicProfile)
	public.GET("/posts/:id", handlers.GetPost)
	public.GET("/comments/:commentId/thread", handlers.CommentThread)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth())

	protected.GET("/me", handlers.GetMyProfile)
	protected.PUT("/me", handlers.UpdateProfile)
	protected.POST("/me/avatar", handlers.UploadAvatar)
	protected.GET("/me/saved", handlers.SavedPosts)

	protected.POST("/communities", handlers.CreateCommunity)
	protected.DELETE("/c/:communityName", handlers.DeleteCommunity)
	protected.POST("/communities/follow", handlers.ToggleFollow)
	protected.GET("/communities/follows", handlers.FollowedCommunities)

	protected.POST("/posts", handlers.CreatePost)
	protected.DELETE("/posts/:id", handlers.DeletePost)
	protected.POST("/posts/:id/save", handlers.ToggleSave)
	protected.POST("/posts/:id/comments", handlers.CreateComment)
	protected.PATCH("/posts/:id/reaction", handlers.TogglePostReaction)
	protected.DELETE("/comments/:commentId", handlers.DeleteComment)
	protected.PATCH("/comments/:commentId/reaction", handlers.ToggleCommentReaction)

	return router
}
