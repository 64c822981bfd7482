package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Community name length limits, matching the creation validation.
const (
	CommunityNameMin = 1
	CommunityNameMax = 15
)

// Community is a named group of posts. Name is unique case-insensitively.
type Community struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	CommunityIcon string             `bson:"communityIcon" json:"communityIcon"`
	CommunityBG   string             `bson:"communityBG" json:"communityBG"`
	Tags          []string           `bson:"tags" json:"tags"`
	Posts         RefSet             `bson:"posts" json:"posts"`
	Followers     RefSet             `bson:"followers" json:"followers"`
	Owner         primitive.ObjectID `bson:"owner" json:"owner"`
	Created       int64              `bson:"created" json:"created"`
}
