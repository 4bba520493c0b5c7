// Package repositories contains the MongoDB data access layer. Each
// repository wraps one or two collections and returns domain models;
// translation to HTTP errors happens in the service layer.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/pkg/metrics"
)

const opTimeout = 5 * time.Second

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("repositories: not found")

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("repositories: duplicate key")

// PrincipalRepository handles account storage for one principal kind.
// Instantiate it twice, once over the users collection and once over
// admins.
type PrincipalRepository struct {
	coll *mongo.Collection
}

// NewPrincipalRepository binds the repository to the named collection,
// models.UsersCollection or models.AdminsCollection.
func NewPrincipalRepository(db *mongo.Database, collection string) *PrincipalRepository {
	return &PrincipalRepository{coll: db.Collection(collection)}
}

// Create inserts the principal and fills in its generated id.
// Returns ErrDuplicate when the email is already taken.
func (r *PrincipalRepository) Create(ctx context.Context, p *models.Principal) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "insert", time.Now())

	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

// FindByEmail looks up a principal by email address.
func (r *PrincipalRepository) FindByEmail(ctx context.Context, email string) (models.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "findOne", time.Now())

	var p models.Principal
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}

// FindByID looks up a principal by its object id.
func (r *PrincipalRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	defer metrics.ObserveStoreOp(r.coll.Name(), "findOne", time.Now())

	var p models.Principal
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}
