package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/jobs"
	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/pkg/apperr"
	"github.com/mealgrid/mealgrid/pkg/collection"
	"github.com/mealgrid/mealgrid/pkg/logger"
	"github.com/mealgrid/mealgrid/pkg/queue"
	"github.com/mealgrid/mealgrid/pkg/validate"
)

// purchaseRetryDelay is how long a failed purchase write waits before the
// reconciliation job runs.
const purchaseRetryDelay = 30 * time.Second

// OrderStore is the storage surface the order service needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	PurchasesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error)
}

// OrderInput is the client-reported payment outcome.
type OrderInput struct {
	Email     string  `json:"email"     validate:"required,email"`
	UserID    string  `json:"userId"    validate:"required"`
	FoodID    string  `json:"foodId"    validate:"required"`
	PaymentID string  `json:"paymentId" validate:"required"`
	Amount    float64 `json:"amount"    validate:"numeric,gte=0"` // zero is valid (comped orders)
	Status    string  `json:"status"    validate:"required"`
}

// OrderResult is what a recorded order returns. PurchaseRecorded is false
// when the follow-up purchase write failed and was queued for retry.
type OrderResult struct {
	Order            models.Order `json:"orderInfo"`
	PurchaseRecorded bool         `json:"purchaseRecorded"`
}

// PurchaseHistory pairs a user's purchase records with the catalog
// entries they reference.
type PurchaseHistory struct {
	Purchases []models.Purchase `json:"purchase"`
	FoodData  []models.Food     `json:"foodData"`
}

// OrderService records orders and reads purchase history.
type OrderService struct {
	store OrderStore
	foods FoodStore
}

func NewOrderService(store OrderStore, foods FoodStore) *OrderService {
	return &OrderService{store: store, foods: foods}
}

// Record inserts the order, then the purchase record derived from it.
// The order insert is authoritative; a failed purchase write does not
// fail the request but is reported in the result and retried in the
// background.
func (s *OrderService) Record(ctx context.Context, in OrderInput) (OrderResult, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return OrderResult{}, apperr.NewValidation(errs)
	}

	order := models.Order{
		Email:     in.Email,
		UserID:    in.UserID,
		FoodID:    in.FoodID,
		PaymentID: in.PaymentID,
		Amount:    in.Amount,
		Status:    in.Status,
	}
	if err := s.store.CreateOrder(ctx, &order); err != nil {
		return OrderResult{}, &apperr.Upstream{Op: "create order", Err: err}
	}

	result := OrderResult{Order: order, PurchaseRecorded: true}
	if err := s.recordPurchase(ctx, in.UserID, in.FoodID); err != nil {
		result.PurchaseRecorded = false
		logger.WithCtx(ctx).Warn("order: purchase write failed, queued for retry",
			"orderId", order.ID.Hex(), "error", err)
		// Delay the reconciliation so a transient store outage has a
		// chance to clear before the retry hits it.
		queue.DispatchAfter(&jobs.RecordPurchaseJob{UserID: in.UserID, FoodID: in.FoodID}, purchaseRetryDelay)
	}
	return result, nil
}

func (s *OrderService) recordPurchase(ctx context.Context, userID, foodID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	fid, err := primitive.ObjectIDFromHex(foodID)
	if err != nil {
		return err
	}
	return s.store.CreatePurchase(ctx, &models.Purchase{UserID: uid, FoodID: fid})
}

// History returns the user's purchase records together with the catalog
// entries they point at.
func (s *OrderService) History(ctx context.Context, userID string) (PurchaseHistory, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return PurchaseHistory{}, err
	}

	purchases, err := s.store.PurchasesByUser(ctx, uid)
	if err != nil {
		return PurchaseHistory{}, &apperr.Upstream{Op: "list purchases", Err: err}
	}

	history := PurchaseHistory{Purchases: purchases, FoodData: []models.Food{}}
	if len(purchases) == 0 {
		return history, nil
	}

	ids := collection.Unique(collection.Map(purchases, func(p models.Purchase) primitive.ObjectID {
		return p.FoodID
	}))
	foods, err := s.foods.FindByIDs(ctx, ids)
	if err != nil {
		return PurchaseHistory{}, &apperr.Upstream{Op: "join foods", Err: err}
	}
	history.FoodData = foods
	return history, nil
}
