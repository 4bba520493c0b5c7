package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/pkg/apperr"
	"github.com/mealgrid/mealgrid/pkg/cache"
	"github.com/mealgrid/mealgrid/pkg/logger"
	"github.com/mealgrid/mealgrid/pkg/storage"
	"github.com/mealgrid/mealgrid/pkg/validate"
)

const (
	catalogCacheKey = "mealgrid:catalog:all"
	foodCacheKeyFmt = "mealgrid:catalog:food:%s"
	catalogCacheTTL = time.Minute
)

// CatalogCache is the read-through cache surface the food service needs.
// *cache.Cache satisfies it; a nil value degrades to a no-op.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// FoodStore is the catalog storage surface the food service needs.
type FoodStore interface {
	Create(ctx context.Context, f *models.Food) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Food, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error)
	All(ctx context.Context) ([]models.Food, error)
	UpdateOwned(ctx context.Context, id, creatorID primitive.ObjectID, f models.Food) (models.Food, error)
	DeleteOwned(ctx context.Context, id, creatorID primitive.ObjectID) (models.Food, error)
}

// FoodInput is the catalog-entry body for create and update.
type FoodInput struct {
	Title       string  `json:"title"       validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required,numeric,gt=0"`
}

// ImageUpload is a decoded multipart image.
type ImageUpload struct {
	Filename string
	MIME     string
	Content  io.Reader
}

var allowedImageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// FoodService implements catalog management and reads.
type FoodService struct {
	store FoodStore
	disk  storage.Disk
	cache CatalogCache
}

func NewFoodService(store FoodStore, disk storage.Disk, c CatalogCache) *FoodService {
	if c == nil {
		c = (*cache.Cache)(nil) // nil-safe no-op
	}
	return &FoodService{store: store, disk: disk, cache: c}
}

// Create validates the entry and its image, stores the image, and inserts
// the catalog document owned by the creating admin.
func (s *FoodService) Create(ctx context.Context, adminID string, in FoodInput, img *ImageUpload) (models.Food, error) {
	errs := validate.Struct(in)
	if img == nil {
		errs["image"] = "Please upload an image"
	} else if !allowedImageMIMEs[img.MIME] {
		errs["image"] = "Please upload a valid image"
	}
	if validate.HasErrors(errs) {
		return models.Food{}, apperr.NewValidation(errs)
	}

	creatorID, err := parseObjectID(adminID, "admin")
	if err != nil {
		return models.Food{}, err
	}

	storageID := path.Join("foods", primitive.NewObjectID().Hex()+path.Ext(img.Filename))
	if err := s.disk.PutStream(storageID, img.Content); err != nil {
		return models.Food{}, &apperr.Upstream{Op: "store image", Err: err}
	}

	food := models.Food{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Image: models.FoodImage{
			StorageID: storageID,
			URL:       s.disk.URL(storageID),
		},
		CreatorID: creatorID,
	}
	if err := s.store.Create(ctx, &food); err != nil {
		return models.Food{}, &apperr.Upstream{Op: "create food", Err: err}
	}

	s.invalidate(ctx, food.ID)
	return food, nil
}

// Update replaces the mutable fields of an entry the admin owns. An entry
// created by another admin is reported as not found.
func (s *FoodService) Update(ctx context.Context, adminID, foodID string, in FoodInput) (models.Food, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Food{}, apperr.NewValidation(errs)
	}

	creatorID, err := parseObjectID(adminID, "admin")
	if err != nil {
		return models.Food{}, err
	}
	id, err := parseObjectID(foodID, "food")
	if err != nil {
		return models.Food{}, err
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Food{}, &apperr.NotFound{Entity: "food"}
		}
		return models.Food{}, &apperr.Upstream{Op: "find food", Err: err}
	}

	updated, err := s.store.UpdateOwned(ctx, id, creatorID, models.Food{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Image:       current.Image, // image survives a metadata update
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Food{}, &apperr.NotFound{Entity: "food"}
		}
		return models.Food{}, &apperr.Upstream{Op: "update food", Err: err}
	}

	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes an entry the admin owns and its stored image.
func (s *FoodService) Delete(ctx context.Context, adminID, foodID string) error {
	creatorID, err := parseObjectID(adminID, "admin")
	if err != nil {
		return err
	}
	id, err := parseObjectID(foodID, "food")
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteOwned(ctx, id, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &apperr.NotFound{Entity: "food"}
		}
		return &apperr.Upstream{Op: "delete food", Err: err}
	}

	if deleted.Image.StorageID != "" {
		if err := s.disk.Delete(deleted.Image.StorageID); err != nil {
			logger.Warn("food: image cleanup failed",
				"storageId", deleted.Image.StorageID, "error", err)
		}
	}

	s.invalidate(ctx, id)
	return nil
}

// All returns the full catalog, served from cache when fresh.
func (s *FoodService) All(ctx context.Context) ([]models.Food, error) {
	var foods []models.Food
	if s.cache.Get(ctx, catalogCacheKey, &foods) {
		return foods, nil
	}

	foods, err := s.store.All(ctx)
	if err != nil {
		return nil, &apperr.Upstream{Op: "list foods", Err: err}
	}

	if err := s.cache.Set(ctx, catalogCacheKey, foods, catalogCacheTTL); err != nil {
		logger.Warn("food: cache set failed", "key", catalogCacheKey, "error", err)
	}
	return foods, nil
}

// Detail returns one catalog entry, served from cache when fresh.
func (s *FoodService) Detail(ctx context.Context, foodID string) (models.Food, error) {
	id, err := parseObjectID(foodID, "food")
	if err != nil {
		return models.Food{}, err
	}

	key := fmt.Sprintf(foodCacheKeyFmt, id.Hex())
	var food models.Food
	if s.cache.Get(ctx, key, &food) {
		return food, nil
	}

	food, err = s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Food{}, &apperr.NotFound{Entity: "food"}
		}
		return models.Food{}, &apperr.Upstream{Op: "find food", Err: err}
	}

	if err := s.cache.Set(ctx, key, food, catalogCacheTTL); err != nil {
		logger.Warn("food: cache set failed", "key", key, "error", err)
	}
	return food, nil
}

func (s *FoodService) invalidate(ctx context.Context, id primitive.ObjectID) {
	keys := []string{catalogCacheKey}
	if !id.IsZero() {
		keys = append(keys, fmt.Sprintf(foodCacheKeyFmt, id.Hex()))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.Warn("food: cache invalidation failed", "error", err)
	}
}
