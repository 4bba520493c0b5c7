package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealgrid/mealgrid/app/models"
)

// EnsureIndexes creates the indexes the application relies on. Safe to run
// repeatedly; CreateOne is a no-op for an index that already exists.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	uniqueEmail := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	for _, coll := range []string{models.UsersCollection, models.AdminsCollection} {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, uniqueEmail); err != nil {
			return fmt.Errorf("database: index %s.email: %w", coll, err)
		}
	}

	// Purchase-history reads filter on userId.
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}
	if _, err := db.Collection(models.PurchasesCollection).Indexes().CreateOne(ctx, byUser); err != nil {
		return fmt.Errorf("database: index purchases.userId: %w", err)
	}

	// Owner-scoped catalog mutations filter on creatorId.
	byCreator := mongo.IndexModel{Keys: bson.D{{Key: "creatorId", Value: 1}}}
	if _, err := db.Collection(models.FoodsCollection).Indexes().CreateOne(ctx, byCreator); err != nil {
		return fmt.Errorf("database: index foods.creatorId: %w", err)
	}

	return nil
}
