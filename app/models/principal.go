package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Principal is an authenticated account. Users and admins share the same
// shape but live in separate collections and carry separate token roles.
type Principal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // hashed, never serialised
}

// Collection names for the two principal kinds.
const (
	UsersCollection  = "users"
	AdminsCollection = "admins"
)
