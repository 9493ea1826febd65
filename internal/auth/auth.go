// Package auth verifies bearer tokens issued by the external identity
// provider and maps their subject onto a local user.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnauthorized = errors.New("unauthorized")
)

// UserContextKey is the key used to store the user in the Gin context
const UserContextKey = "user"

// Identity is the verified content of a bearer token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks a raw bearer token and returns who it was issued to.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

// Authenticator combines token verification with user provisioning.
type Authenticator struct {
	verifier Verifier
	users    *Provisioner
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(verifier Verifier, users *Provisioner, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, users: users, logger: logger}
}

// Authenticate verifies raw and returns the local user it belongs to.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	identity, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return a.users.Resolve(identity)
}

// Middleware returns a Gin middleware that requires a valid bearer token.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		user, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				a.logger.Debug("Rejected bearer token", "error", err, "ip", c.ClientIP())
			} else {
				a.logger.Error("Failed to authenticate request", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// UserFromContext returns the user stored by Middleware.
func UserFromContext(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return nil, ErrUnauthorized
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil, errors.New("invalid user in context")
	}
	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
