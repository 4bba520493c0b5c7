package services

import (
	"context"
	"errors"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/pkg/apperr"
	"github.com/mealgrid/mealgrid/pkg/payment"
)

// PaymentService starts a payment for a catalog entry. The processor
// client is injected so tests can run without Stripe.
type PaymentService struct {
	foods   FoodStore
	users   PrincipalStore
	intents payment.IntentClient
}

func NewPaymentService(foods FoodStore, users PrincipalStore, intents payment.IntentClient) *PaymentService {
	return &PaymentService{foods: foods, users: users, intents: intents}
}

// Buy resolves the food and the buying user, then creates a card payment
// intent for the food's price. The amount is charged in cents.
func (s *PaymentService) Buy(ctx context.Context, userID, foodID string) (models.Food, *payment.Intent, error) {
	fid, err := parseObjectID(foodID, "food")
	if err != nil {
		return models.Food{}, nil, err
	}
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return models.Food{}, nil, err
	}

	food, err := s.foods.FindByID(ctx, fid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Food{}, nil, &apperr.NotFound{Entity: "food"}
		}
		return models.Food{}, nil, &apperr.Upstream{Op: "find food", Err: err}
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Food{}, nil, &apperr.NotFound{Entity: "user"}
		}
		return models.Food{}, nil, &apperr.Upstream{Op: "find user", Err: err}
	}

	amountCents := int64(food.Price * 100)
	intent, err := s.intents.CreateIntent(ctx, amountCents, user.Email)
	if err != nil {
		return models.Food{}, nil, &apperr.Upstream{Op: "create payment intent", Err: err}
	}

	return food, intent, nil
}
