package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealgrid/mealgrid/app/models"
)

func init() {
	Register("foods", SeedFoods)
}

// SeedFoods inserts a small starter catalog. Skipped when the collection
// already has documents.
func SeedFoods(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(models.FoodsCollection)

	n, err := coll.CountDocuments(ctx, map[string]any{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	foods := []any{
		models.Food{
			Title:       "Margherita Pizza",
			Description: "Wood-fired pizza with tomato, mozzarella and basil.",
			Price:       12.50,
			Image: models.FoodImage{
				StorageID: "seed/margherita",
				URL:       "https://images.mealgrid.dev/seed/margherita.jpg",
			},
		},
		models.Food{
			Title:       "Chicken Biryani",
			Description: "Fragrant basmati rice layered with spiced chicken.",
			Price:       10.00,
			Image: models.FoodImage{
				StorageID: "seed/biryani",
				URL:       "https://images.mealgrid.dev/seed/biryani.jpg",
			},
		},
		models.Food{
			Title:       "Caesar Salad",
			Description: "Romaine, parmesan and croutons with house dressing.",
			Price:       8.75,
			Image: models.FoodImage{
				StorageID: "seed/caesar",
				URL:       "https://images.mealgrid.dev/seed/caesar.jpg",
			},
		},
	}

	_, err = coll.InsertMany(ctx, foods)
	return err
}
