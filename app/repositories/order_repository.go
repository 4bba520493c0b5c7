package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/pkg/metrics"
)

// OrderRepository handles order and purchase storage. The two collections
// are written together in the order-recording flow, so one repository
// owns both.
type OrderRepository struct {
	orders    *mongo.Collection
	purchases *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		orders:    db.Collection(models.OrdersCollection),
		purchases: db.Collection(models.PurchasesCollection),
	}
}

// CreateOrder inserts the order and fills in its generated id.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.orders.Name(), "insert", time.Now())

	res, err := r.orders.InsertOne(ctx, o)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

// CreatePurchase inserts a purchase record.
func (r *OrderRepository) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.purchases.Name(), "insert", time.Now())

	res, err := r.purchases.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

// PurchasesByUser returns every purchase record for the user.
func (r *OrderRepository) PurchasesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.purchases.Name(), "find", time.Now())

	cur, err := r.purchases.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	purchases := []models.Purchase{}
	if err := cur.All(ctx, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}
