package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Account holds login credentials. Social identity lives on the Profile,
// which is created together with the Account and shares its lifetime.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Profile      primitive.ObjectID `bson:"profile" json:"profile"`
	Joined       int64              `bson:"joined" json:"joined"`
}
