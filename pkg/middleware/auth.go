package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/response"
)

// Keys set on the gin context for authenticated requests.
const (
	UserIDKey   = log.FieldUserID
	UsernameKey = log.FieldUsername
	IdentityKey = "identity"
)

// Authenticator resolves an HTTP request to the caller's identity.
type Authenticator interface {
	AuthenticateRequest(ctx context.Context, r *http.Request) (*domain.Identity, error)
}

// AuthMiddleware guards routes behind an Authenticator.
type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth rejects the request with 401 unless the Authenticator accepts
// it. Every failure produces the same response body.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		identity, err := m.auth.AuthenticateRequest(ctx, c.Request)
		if err != nil {
			l := log.Ctx(ctx)
			l.Debug().Err(err).Msg("request authentication failed")
			response.Unauthorized(c, "authentication required")
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(UsernameKey, identity.Name)
		c.Set(IdentityKey, identity)

		l := log.Ctx(ctx).With().Str(log.FieldUserID, identity.UserID).Logger()
		c.Request = c.Request.WithContext(log.WithLogger(ctx, l))

		c.Next()
	}
}

// GetUserID returns the authenticated user id, or "" outside RequireAuth.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetIdentity returns the authenticated identity, or nil outside RequireAuth.
func GetIdentity(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}
