package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-chat/internal/cache"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/jwt"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

// ErrUnauthenticated is the only error callers ever see: a missing token, a
// bad or expired signature and an unknown user are indistinguishable.
var ErrUnauthenticated = errors.New("authentication failed")

// TokenVerifier validates a raw token and returns its claims.
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type Authenticator struct {
	verifier   TokenVerifier
	users      UserStore
	cache      cache.IdentityCache // optional
	cacheTTL   time.Duration
	cookieName string
	sf         singleflight.Group
}

// NewAuthenticator wires token verification to identity lookup. idCache may
// be nil.
func NewAuthenticator(verifier TokenVerifier, users UserStore, idCache cache.IdentityCache, cacheTTL time.Duration, cookieName string) *Authenticator {
	return &Authenticator{
		verifier:   verifier,
		users:      users,
		cache:      idCache,
		cacheTTL:   cacheTTL,
		cookieName: cookieName,
	}
}

// CookieName is the cookie the token is read from.
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// AuthenticateRequest authenticates the credential carried by r.
func (a *Authenticator) AuthenticateRequest(ctx context.Context, r *http.Request) (*domain.Identity, error) {
	return a.Authenticate(ctx, ExtractToken(r, a.cookieName))
}

// Authenticate verifies token and resolves it to the user's identity.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	l := log.Ctx(ctx)

	if token == "" {
		l.Debug().Msg("authentication rejected: no token")
		return nil, ErrUnauthenticated
	}

	claims, err := a.verifier.ValidateToken(token)
	if err != nil {
		l.Debug().Err(err).Msg("authentication rejected: invalid token")
		return nil, ErrUnauthenticated
	}

	identity, err := a.resolve(ctx, claims.ResolvedUserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			l.Debug().Str(log.FieldUserID, claims.ResolvedUserID()).Msg("authentication rejected: unknown user")
		} else {
			l.Error().Err(err).Str(log.FieldUserID, claims.ResolvedUserID()).Msg("identity lookup failed")
		}
		return nil, ErrUnauthenticated
	}

	copied := *identity
	return &copied, nil
}

func (a *Authenticator) resolve(ctx context.Context, userID string) (*domain.Identity, error) {
	result, err, _ := a.sf.Do(userID, func() (interface{}, error) {
		return a.fetchWithCache(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	identity, ok := result.(*domain.Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return identity, nil
}

func (a *Authenticator) fetchWithCache(ctx context.Context, userID string) (*domain.Identity, error) {
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("identity cache get error")
		}
	}

	identity, err := a.users.GetIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		stored := *identity
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := a.cache.Set(cacheCtx, &stored, a.cacheTTL); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("identity cache set error")
			}
		}()
	}

	return identity, nil
}
