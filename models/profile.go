package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const DefaultProfileImg = "https://res.cloudinary.com/de7we6c9g/image/upload/v1713806008/Profile%20Pictures/default.jpg"

// Profile is a user's social identity. The reference sets are mirrors of
// relationships also stored on the other entity (posts, communities,
// reactions) and must always agree with that side.
type Profile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Account    primitive.ObjectID `bson:"account" json:"account"`
	FirstName  string             `bson:"firstName" json:"firstName"`
	LastName   string             `bson:"lastName" json:"lastName"`
	Biography  string             `bson:"biography" json:"biography"`
	ProfileImg string             `bson:"profileImg" json:"profileImg"`

	OwnedCommunities    RefSet `bson:"ownedCommunities" json:"ownedCommunities"`
	FollowedCommunities RefSet `bson:"followedCommunities" json:"followedCommunities"`
	Posts               RefSet `bson:"posts" json:"posts"`
	Comments            RefSet `bson:"comments" json:"comments"`
	LikedPosts          RefSet `bson:"likedPosts" json:"likedPosts"`
	DislikedPosts       RefSet `bson:"dislikedPosts" json:"dislikedPosts"`
	LikedComments       RefSet `bson:"likedComments" json:"likedComments"`
	DislikedComments    RefSet `bson:"dislikedComments" json:"dislikedComments"`
	Saved               RefSet `bson:"saved" json:"saved"`
}

// NewProfile returns a blank profile for a fresh account with every
// reference set initialized, so the stored document always has the arrays.
func NewProfile(account primitive.ObjectID) *Profile {
	return &Profile{
		ID:                  primitive.NewObjectID(),
		Account:             account,
		FirstName:           "Unknown",
		LastName:            "Unknown",
		ProfileImg:          DefaultProfileImg,
		OwnedCommunities:    RefSet{},
		FollowedCommunities: RefSet{},
		Posts:               RefSet{},
		Comments:            RefSet{},
		LikedPosts:          RefSet{},
		DislikedPosts:       RefSet{},
		LikedComments:       RefSet{},
		DislikedComments:    RefSet{},
		Saved:               RefSet{},
	}
}
