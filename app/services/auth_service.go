// Package services holds the business logic between controllers and
// repositories. Services return apperr values; controllers translate them
// to HTTP via response.FromError.
package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/pkg/apperr"
	"github.com/mealgrid/mealgrid/pkg/auth"
	"github.com/mealgrid/mealgrid/pkg/validate"
)

// PrincipalStore is the account storage surface the auth service needs.
type PrincipalStore interface {
	Create(ctx context.Context, p *models.Principal) error
	FindByEmail(ctx context.Context, email string) (models.Principal, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Principal, error)
}

// SignupInput is the signup request body, shared by users and admins.
type SignupInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService implements signup and login for one principal kind.
// Instantiate it twice: once with the users repository and the user token
// issuer, once with the admins repository and the admin issuer.
type AuthService struct {
	store  PrincipalStore
	issuer *auth.Issuer
	kind   string // "User" or "Admin", used in messages
}

func NewAuthService(store PrincipalStore, issuer *auth.Issuer, kind string) *AuthService {
	return &AuthService{store: store, issuer: issuer, kind: kind}
}

// Signup validates the input, hashes the password, and creates the
// account. A taken email yields a conflict error.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (models.Principal, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Principal{}, apperr.NewValidation(errs)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Principal{}, &apperr.Upstream{Op: "hash password", Err: err}
	}

	p := models.Principal{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  hash,
	}
	if err := s.store.Create(ctx, &p); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Principal{}, &apperr.Conflict{Message: s.kind + " already exists"}
		}
		return models.Principal{}, &apperr.Upstream{Op: "create " + s.kind, Err: err}
	}
	return p, nil
}

// Login checks the credentials and mints a token. Unknown email and wrong
// password return the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (models.Principal, string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Principal{}, "", apperr.NewValidation(errs)
	}

	p, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Principal{}, "", &apperr.Authentication{}
		}
		return models.Principal{}, "", &apperr.Upstream{Op: "find " + s.kind, Err: err}
	}

	if !auth.CheckPassword(p.Password, in.Password) {
		return models.Principal{}, "", &apperr.Authentication{}
	}

	token, err := s.issuer.Issue(p.ID.Hex())
	if err != nil {
		return models.Principal{}, "", &apperr.Upstream{Op: "issue token", Err: err}
	}
	return p, token, nil
}

// parseObjectID converts a hex id from a token or URL into an ObjectID.
func parseObjectID(hex, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &apperr.NotFound{Entity: entity}
	}
	return id, nil
}
