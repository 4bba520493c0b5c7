package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/apperr"
)

// fakeDisk is an in-memory storage.Disk.
type fakeDisk struct {
	files map[string][]byte
}

func newFakeDisk() *fakeDisk { return &fakeDisk{files: map[string][]byte{}} }

func (d *fakeDisk) Put(path string, content []byte) error {
	d.files[path] = content
	return nil
}

func (d *fakeDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.files[path] = data
	return nil
}

func (d *fakeDisk) Get(path string) ([]byte, error) { return d.files[path], nil }
func (d *fakeDisk) Exists(path string) bool         { _, ok := d.files[path]; return ok }

func (d *fakeDisk) Delete(path string) error {
	delete(d.files, path)
	return nil
}

func (d *fakeDisk) URL(path string) string { return "https://cdn.test/" + path }

// fakeCache is an in-memory services.CatalogCache.
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) bool {
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool { _, ok := c.data[key]; return ok }

func pngUpload() *services.ImageUpload {
	return &services.ImageUpload{
		Filename: "pizza.png",
		MIME:     "image/png",
		Content:  bytes.NewReader([]byte("png-bytes")),
	}
}

func validFood() services.FoodInput {
	return services.FoodInput{
		Title:       "Margherita Pizza",
		Description: "Tomato, mozzarella, basil.",
		Price:       12.50,
	}
}

func TestCreateStoresImageAndEntry(t *testing.T) {
	store := newFakeFoodStore()
	disk := newFakeDisk()
	svc := services.NewFoodService(store, disk, nil)

	adminID := primitive.NewObjectID()
	food, err := svc.Create(context.Background(), adminID.Hex(), validFood(), pngUpload())
	require.NoError(t, err)

	assert.False(t, food.ID.IsZero())
	assert.Equal(t, adminID, food.CreatorID)
	assert.True(t, disk.Exists(food.Image.StorageID))
	assert.Equal(t, "https://cdn.test/"+food.Image.StorageID, food.Image.URL)
}

func TestCreateRejectsBadImageType(t *testing.T) {
	svc := services.NewFoodService(newFakeFoodStore(), newFakeDisk(), nil)

	upload := pngUpload()
	upload.MIME = "application/pdf"
	_, err := svc.Create(context.Background(), primitive.NewObjectID().Hex(), validFood(), upload)

	var v *apperr.Validation
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "image")
}

func TestCreateRequiresImage(t *testing.T) {
	svc := services.NewFoodService(newFakeFoodStore(), newFakeDisk(), nil)

	_, err := svc.Create(context.Background(), primitive.NewObjectID().Hex(), validFood(), nil)

	var v *apperr.Validation
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "image")
}

func TestUpdateByOtherAdminReportsNotFound(t *testing.T) {
	owner := primitive.NewObjectID()
	food := models.Food{ID: primitive.NewObjectID(), Title: "Old", Description: "d", Price: 5, CreatorID: owner}
	svc := services.NewFoodService(newFakeFoodStore(food), newFakeDisk(), nil)

	otherAdmin := primitive.NewObjectID()
	_, err := svc.Update(context.Background(), otherAdmin.Hex(), food.ID.Hex(), validFood())

	var nf *apperr.NotFound
	require.ErrorAs(t, err, &nf)
}

func TestUpdateKeepsImage(t *testing.T) {
	owner := primitive.NewObjectID()
	food := models.Food{
		ID: primitive.NewObjectID(), Title: "Old", Description: "d", Price: 5,
		Image:     models.FoodImage{StorageID: "foods/abc.png", URL: "https://cdn.test/foods/abc.png"},
		CreatorID: owner,
	}
	svc := services.NewFoodService(newFakeFoodStore(food), newFakeDisk(), nil)

	updated, err := svc.Update(context.Background(), owner.Hex(), food.ID.Hex(), validFood())
	require.NoError(t, err)

	assert.Equal(t, "Margherita Pizza", updated.Title)
	assert.Equal(t, food.Image, updated.Image)
}

func TestDeleteRemovesStoredImage(t *testing.T) {
	owner := primitive.NewObjectID()
	disk := newFakeDisk()
	require.NoError(t, disk.Put("foods/abc.png", []byte("img")))

	food := models.Food{
		ID: primitive.NewObjectID(), Title: "Old", Description: "d", Price: 5,
		Image:     models.FoodImage{StorageID: "foods/abc.png"},
		CreatorID: owner,
	}
	store := newFakeFoodStore(food)
	svc := services.NewFoodService(store, disk, nil)

	require.NoError(t, svc.Delete(context.Background(), owner.Hex(), food.ID.Hex()))

	assert.False(t, disk.Exists("foods/abc.png"))
	_, err := store.FindByID(context.Background(), food.ID)
	assert.Error(t, err)
}

func TestAllServesFromCache(t *testing.T) {
	food := models.Food{ID: primitive.NewObjectID(), Title: "Cached", Description: "d", Price: 5}
	store := newFakeFoodStore(food)
	c := newFakeCache()
	svc := services.NewFoodService(store, newFakeDisk(), c)

	first, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, c.has("mealgrid:catalog:all"))

	// A store write that bypasses the service stays invisible until the
	// cache is evicted.
	require.NoError(t, store.Create(context.Background(), &models.Food{Title: "Direct", Description: "d", Price: 3}))

	second, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestCreateEvictsCatalogCache(t *testing.T) {
	store := newFakeFoodStore()
	c := newFakeCache()
	svc := services.NewFoodService(store, newFakeDisk(), c)

	_, err := svc.All(context.Background())
	require.NoError(t, err)
	require.True(t, c.has("mealgrid:catalog:all"))

	created, err := svc.Create(context.Background(), primitive.NewObjectID().Hex(), validFood(), pngUpload())
	require.NoError(t, err)

	assert.False(t, c.has("mealgrid:catalog:all"))

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}

func TestUpdateEvictsCatalogAndDetailCache(t *testing.T) {
	owner := primitive.NewObjectID()
	food := models.Food{ID: primitive.NewObjectID(), Title: "Old", Description: "d", Price: 5, CreatorID: owner}
	c := newFakeCache()
	svc := services.NewFoodService(newFakeFoodStore(food), newFakeDisk(), c)

	_, err := svc.All(context.Background())
	require.NoError(t, err)
	_, err = svc.Detail(context.Background(), food.ID.Hex())
	require.NoError(t, err)

	foodKey := "mealgrid:catalog:food:" + food.ID.Hex()
	require.True(t, c.has("mealgrid:catalog:all"))
	require.True(t, c.has(foodKey))

	_, err = svc.Update(context.Background(), owner.Hex(), food.ID.Hex(), validFood())
	require.NoError(t, err)

	assert.False(t, c.has("mealgrid:catalog:all"))
	assert.False(t, c.has(foodKey))

	// The next read repopulates with the updated entry.
	fresh, err := svc.Detail(context.Background(), food.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Margherita Pizza", fresh.Title)
}

func TestDeleteEvictsCatalogAndDetailCache(t *testing.T) {
	owner := primitive.NewObjectID()
	food := models.Food{ID: primitive.NewObjectID(), Title: "Old", Description: "d", Price: 5, CreatorID: owner}
	c := newFakeCache()
	svc := services.NewFoodService(newFakeFoodStore(food), newFakeDisk(), c)

	_, err := svc.Detail(context.Background(), food.ID.Hex())
	require.NoError(t, err)

	foodKey := "mealgrid:catalog:food:" + food.ID.Hex()
	require.True(t, c.has(foodKey))

	require.NoError(t, svc.Delete(context.Background(), owner.Hex(), food.ID.Hex()))

	assert.False(t, c.has(foodKey))
	assert.False(t, c.has("mealgrid:catalog:all"))
}

func TestDetailUnknownIDReportsNotFound(t *testing.T) {
	svc := services.NewFoodService(newFakeFoodStore(), newFakeDisk(), nil)

	_, err := svc.Detail(context.Background(), "not-a-hex-id")
	var nf *apperr.NotFound
	require.ErrorAs(t, err, &nf)

	_, err = svc.Detail(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorAs(t, err, &nf)
}
