package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the fields the identity service puts in its access tokens.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver turns an HS256 bearer token into a caller id.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve accepts either the raw token or a full "Bearer <token>" header value.
func (r *JWTResolver) Resolve(header string) (*Claims, error) {
	token := strings.TrimSpace(header)
	if scheme, rest, _ := strings.Cut(token, " "); strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues a token for id. The API never issues tokens itself; tests and
// local tooling use this.
func (r *JWTResolver) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
