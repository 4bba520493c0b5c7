package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Order is a client-reported payment outcome. The ids arrive as strings
// from the frontend and are stored as given.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email     string             `bson:"email" json:"email"`
	UserID    string             `bson:"userId" json:"userId"`
	FoodID    string             `bson:"foodId" json:"foodId"`
	PaymentID string             `bson:"paymentId" json:"paymentId"`
	Amount    float64            `bson:"amount" json:"amount"`
	Status    string             `bson:"status" json:"status"`
}

// Purchase links a user to a food item they bought. It is the record the
// purchase-history read joins against the catalog.
type Purchase struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	FoodID primitive.ObjectID `bson:"foodId" json:"foodId"`
}

const (
	OrdersCollection    = "orders"
	PurchasesCollection = "purchases"
)
