// Package auth issues and verifies the signed bearer tokens that bind a
// request to a principal and role.
//
// One Issuer exists per role, each with its own signing secret, so an
// end-user token can never satisfy the administrator guard and vice versa.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Role identifies the kind of principal a token asserts.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TokenTTL is how long an issued token stays valid. There is no refresh
// mechanism; expiry is checked at verification time only.
const TokenTTL = 24 * time.Hour

// Claims holds the typed JWT payload.
type Claims struct {
	PrincipalID string `json:"id"`
	Role        Role   `json:"role"`
	jwt.RegisteredClaims
}

// ErrTokenInvalid is returned for any token that fails signature, expiry,
// claim-shape, or role verification.
var ErrTokenInvalid = errors.New("auth: token invalid")

// Issuer mints and verifies tokens for exactly one role.
type Issuer struct {
	role   Role
	secret []byte
	now    func() time.Time // overridable in tests
}

// NewIssuer creates an Issuer for the given role and signing secret.
func NewIssuer(role Role, secret string) *Issuer {
	return &Issuer{role: role, secret: []byte(secret), now: time.Now}
}

// Role returns the role this issuer serves.
func (i *Issuer) Role() Role { return i.role }

// WithClock returns a copy of the issuer using now as its time source.
// Used by tests to mint already-expired tokens.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	return &Issuer{role: i.role, secret: i.secret, now: now}
}

// Issue creates a signed token for principalID, expiring TokenTTL from now.
func (i *Issuer) Issue(principalID string) (string, error) {
	now := i.now()
	claims := Claims{
		PrincipalID: principalID,
		Role:        i.role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token string. It fails for tokens signed
// with a different secret (including the other role's), expired tokens,
// and tokens whose role claim does not match this issuer's role.
func (i *Issuer) Verify(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != i.role {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
