package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment is a node in a post's reply tree. Replies is a self-referential
// adjacency list; IsReply marks comments that live under another comment
// rather than directly under the post.
type Comment struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Profile  primitive.ObjectID  `bson:"profile" json:"profile"`
	Body     string              `bson:"body" json:"body"`
	Post     primitive.ObjectID  `bson:"post" json:"post"`
	Likes    RefSet              `bson:"likes" json:"-"`
	Dislikes RefSet              `bson:"dislikes" json:"-"`
	IsReply  bool                `bson:"isReply" json:"isReply"`
	Parent   *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	Replies  RefSet              `bson:"replies" json:"replies"`
	Created  int64               `bson:"created" json:"created"`
}
