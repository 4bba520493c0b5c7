// Package jobs defines the background jobs dispatched onto pkg/queue.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/pkg/metrics"
	"github.com/mealgrid/mealgrid/pkg/queue"
)

// PurchaseStore is the storage surface the reconciliation job needs.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, p *models.Purchase) error
}

var purchaseStore PurchaseStore

// Configure wires the job package to its storage and registers every job
// type with the queue. Call once at boot, before StartWorkers.
func Configure(store PurchaseStore) {
	purchaseStore = store
	queue.Register("*jobs.RecordPurchaseJob", func() queue.Job { return &RecordPurchaseJob{} })
}

// RecordPurchaseJob retries the purchase write that follows an order
// insert when the synchronous attempt failed. Order history stays
// consistent as long as this eventually succeeds.
type RecordPurchaseJob struct {
	UserID string `json:"userId"`
	FoodID string `json:"foodId"`
}

func (j *RecordPurchaseJob) Handle() error {
	uid, err := primitive.ObjectIDFromHex(j.UserID)
	if err != nil {
		metrics.PurchaseReconciliations.WithLabelValues("failed").Inc()
		return fmt.Errorf("jobs: bad userId %q: %w", j.UserID, err)
	}
	fid, err := primitive.ObjectIDFromHex(j.FoodID)
	if err != nil {
		metrics.PurchaseReconciliations.WithLabelValues("failed").Inc()
		return fmt.Errorf("jobs: bad foodId %q: %w", j.FoodID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := purchaseStore.CreatePurchase(ctx, &models.Purchase{UserID: uid, FoodID: fid}); err != nil {
		metrics.PurchaseReconciliations.WithLabelValues("failed").Inc()
		return fmt.Errorf("jobs: record purchase: %w", err)
	}

	metrics.PurchaseReconciliations.WithLabelValues("recovered").Inc()
	return nil
}
