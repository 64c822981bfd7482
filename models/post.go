package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Community primitive.ObjectID `bson:"community" json:"community"`
	Likes     RefSet             `bson:"likes" json:"-"`
	Dislikes  RefSet             `bson:"dislikes" json:"-"`
	Comments  RefSet             `bson:"comments" json:"comments"`
	Created   int64              `bson:"created" json:"created"`
}
