package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("signing secret is empty")
)

// Claims represents access token claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// ResolvedUserID returns the user id carried by the token. Tokens minted elsewhere
// may only set the registered "sub" claim.
func (c *Claims) ResolvedUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Manager signs and verifies HMAC-SHA256 access tokens with a shared secret.
type Manager struct {
	secret         []byte
	accessDuration time.Duration
	issuer         string
	now            func() time.Time
}

// NewManager creates a new JWT manager.
func NewManager(secret string, accessDuration time.Duration, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	return &Manager{
		secret:         []byte(secret),
		accessDuration: accessDuration,
		issuer:         issuer,
		now:            time.Now,
	}, nil
}

// GenerateAccessToken issues a signed access token for userID.
func (m *Manager) GenerateAccessToken(userID, email, username string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.accessDuration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:   userID,
		Email:    email,
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateToken verifies signature, expiry and issuer and returns the claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ResolvedUserID() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
