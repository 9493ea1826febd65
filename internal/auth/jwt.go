package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims Haven reads. Identity providers that keep the
// display name under user_metadata are supported as well as a plain name
// claim.
type Claims struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 tokens signed with a secret shared with
// the identity provider.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a verifier. An empty audience skips the aud
// check.
func NewJWTAuthenticator(secret, audience string) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTAuthenticator{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

// Verify validates raw and extracts the identity.
func (a *JWTAuthenticator) Verify(ctx context.Context, raw string) (*Identity, error) {
	var claims Claims
	_, err := a.parser.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	name := claims.Name
	if name == "" {
		name = claims.UserMetadata.FullName
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email, Name: name}, nil
}
