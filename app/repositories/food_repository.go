package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/pkg/metrics"
)

// FoodRepository handles catalog storage.
type FoodRepository struct {
	coll *mongo.Collection
}

func NewFoodRepository(db *mongo.Database) *FoodRepository {
	return &FoodRepository{coll: db.Collection(models.FoodsCollection)}
}

// Create inserts a catalog entry and fills in its generated id.
func (r *FoodRepository) Create(ctx context.Context, f *models.Food) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "insert", time.Now())

	res, err := r.coll.InsertOne(ctx, f)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		f.ID = id
	}
	return nil
}

// FindByID returns the entry with the given id.
func (r *FoodRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "findOne", time.Now())

	var f models.Food
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return f, ErrNotFound
	}
	return f, err
}

// FindByIDs returns every entry whose id is in ids, in store order.
// Missing ids are silently skipped.
func (r *FoodRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "find", time.Now())

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	foods := []models.Food{}
	if err := cur.All(ctx, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// All returns the full catalog.
func (r *FoodRepository) All(ctx context.Context) ([]models.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "find", time.Now())

	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	foods := []models.Food{}
	if err := cur.All(ctx, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// UpdateOwned replaces the mutable fields of the entry, but only when it
// was created by creatorID. Returns ErrNotFound when the filter matches
// nothing, whether the entry is missing or owned by someone else.
func (r *FoodRepository) UpdateOwned(ctx context.Context, id, creatorID primitive.ObjectID, f models.Food) (models.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "update", time.Now())

	update := bson.M{"$set": bson.M{
		"title":       f.Title,
		"description": f.Description,
		"price":       f.Price,
		"image":       f.Image,
	}}

	var updated models.Food
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "creatorId": creatorID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return updated, ErrNotFound
	}
	return updated, err
}

// DeleteOwned removes the entry when it was created by creatorID.
// Returns the deleted entry so the caller can clean up its image.
func (r *FoodRepository) DeleteOwned(ctx context.Context, id, creatorID primitive.ObjectID) (models.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "delete", time.Now())

	var deleted models.Food
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "creatorId": creatorID}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return deleted, ErrNotFound
	}
	return deleted, err
}
