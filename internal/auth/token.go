package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swarupplay/backend/internal/models"
)

var (
	// ErrTokenMissing indicates the request carried no bearer token.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenInvalid indicates the token is malformed, tampered with or signed with another key.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token signature is valid but its lifetime has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the signed payload of an access token.
type Claims struct {
	models.Identity
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens. It keeps no session state, so
// verification is a pure function of the token, the secret and the clock.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer. A non-positive ttl defaults to seven days.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if strings.TrimSpace(secret) == "" {
		panic("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithNowFunc overrides the clock. Intended for tests.
func (i *Issuer) WithNowFunc(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue signs a token for the identity and returns it with its expiry.
func (i *Issuer) Issue(identity models.Identity) (string, time.Time, error) {
	if identity.ID == "" {
		return "", time.Time{}, errors.New("identity id must be provided")
	}

	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and lifetime of the token and returns its claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, ErrTokenMissing
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Identity.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing identity", ErrTokenInvalid)
	}

	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
