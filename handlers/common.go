package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/apis"
	"commons/engine"
	"commons/middleware"
	"commons/models"
	"commons/store"
)

// Shared handler state, wired once from main.
var (
	db        store.Store
	entities  *engine.Entities
	reactions *engine.Reactions
	follows   *engine.Follows
	threads   *engine.Threads
	images    *apis.Cloudinary
)

// Init wires the handlers to a store and the engines built on it. The
// Cloudinary client may be nil; image endpoints then reject uploads.
func Init(s store.Store, cld *apis.Cloudinary) {
	db = s
	entities = engine.NewEntities(s)
	reactions = engine.NewReactions(s)
	follows = engine.NewFollows(s)
	threads = engine.NewThreads(s)
	images = cld
}

const requestTimeout = 10 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// respondError maps engine error kinds onto HTTP statuses. Invariant
// violations and unknown storage failures come back generic and get logged
// for the reconciliation pass.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, engine.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrConflictingWrite):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Conflicting write, try again"})
	default:
		if errors.Is(err, engine.ErrInvariantViolation) {
			log.Printf("invariant violation detected: %v", err)
		} else {
			log.Printf("handler error: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error, try again later"})
	}
}

// currentProfile resolves the authenticated account's profile. Only valid
// behind the strict JWT middleware.
func currentProfile(ctx context.Context, c *gin.Context) (*models.Profile, error) {
	accountID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextAccountID))
	if err != nil {
		return nil, engine.ErrNotFound
	}
	return db.ProfileByAccount(ctx, accountID)
}

// viewerProfile resolves the profile behind the soft middleware: nil when
// the request is anonymous or the token's account is gone.
func viewerProfile(ctx context.Context, c *gin.Context) *models.Profile {
	idStr := c.GetString(middleware.ContextAccountID)
	if idStr == "" {
		return nil
	}
	accountID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return nil
	}
	profile, err := db.ProfileByAccount(ctx, accountID)
	if err != nil {
		return nil
	}
	return profile
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
