package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// FoodImage is the stored image reference for a catalog entry.
type FoodImage struct {
	StorageID string `bson:"public_id" json:"public_id"`
	URL       string `bson:"url" json:"url"`
}

// Food is a catalog entry created by an admin.
type Food struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Image       FoodImage          `bson:"image" json:"image"`
	CreatorID   primitive.ObjectID `bson:"creatorId,omitempty" json:"creatorId,omitempty"`
}

const FoodsCollection = "foods"
