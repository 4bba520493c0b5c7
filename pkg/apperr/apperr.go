// Package apperr defines the application error taxonomy shared by services
// and controllers.
//
// Services return these; controllers translate them to HTTP via
// response.FromError. Anything that is not an apperr type is treated as an
// internal failure: logged with detail, returned to the client as a generic
// message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation carries field-level input errors. Every violated field is
// reported, not just the first.
type Validation struct {
	Fields map[string]string
}

func (e *Validation) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidation wraps a field→message map produced by pkg/validate.
func NewValidation(fields map[string]string) *Validation {
	return &Validation{Fields: fields}
}

// Conflict marks a duplicate-resource failure, e.g. signing up an email
// that already exists for the same role.
type Conflict struct {
	Message string
}

func (e *Conflict) Error() string { return e.Message }

// Authentication is returned for bad login credentials. The message is the
// same whether the email is unknown or the password is wrong, so responses
// cannot be used to enumerate accounts.
type Authentication struct{}

func (e *Authentication) Error() string { return "invalid username or password" }

// Unauthenticated means the request carried no usable bearer token.
// The text is the exact client-facing message, hence the capitalisation.
var ErrUnauthenticated = errors.New("Access denied. No token provided.") //nolint:stylecheck

// InvalidToken means a token was presented but failed signature, expiry, or
// role verification.
var ErrInvalidToken = errors.New("Invalid token.") //nolint:stylecheck

// NotFound marks a missing entity.
type NotFound struct {
	Entity string
}

func (e *NotFound) Error() string { return e.Entity + " not found" }

// Upstream wraps a failure in an external collaborator (store, payment
// processor, object storage). The wrapped detail is for logs only.
type Upstream struct {
	Op  string
	Err error
}

func (e *Upstream) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *Upstream) Unwrap() error { return e.Err }

// Status maps err to an HTTP status code. Unknown errors map to 500.
func Status(err error) int {
	var (
		v  *Validation
		c  *Conflict
		a  *Authentication
		nf *NotFound
		up *Upstream
	)
	switch {
	case errors.As(err, &v):
		return http.StatusUnprocessableEntity
	case errors.As(err, &c):
		return http.StatusConflict
	case errors.As(err, &a):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidToken):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &up):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err's message is safe to show to a client.
// Upstream and unknown errors are not.
func Public(err error) bool {
	return Status(err) < http.StatusInternalServerError
}
