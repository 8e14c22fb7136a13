package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"memory-duel-server/config"
)

// DefaultDisplayName is used when a token carries no usable name.
const DefaultDisplayName = "Duelist"

var (
	ErrNotConfigured = errors.New("server auth not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Identity is the authenticated player behind a token.
type Identity struct {
	PlayerID    string
	DisplayName string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// NewVerifier picks the verifier for cfg: HMAC when a shared secret is set,
// Neon Auth when a base URL is set, otherwise one that rejects every token.
func NewVerifier(ctx context.Context, cfg *config.Config) (Verifier, error) {
	switch {
	case cfg.AuthHMACSecret != "":
		return NewHMACVerifier(cfg.AuthHMACSecret), nil
	case cfg.NeonAuthBaseURL != "":
		return NewNeonVerifier(ctx, cfg.NeonAuthBaseURL)
	default:
		return disabledVerifier{}, nil
	}
}

type disabledVerifier struct{}

func (disabledVerifier) Verify(context.Context, string) (Identity, error) {
	return Identity{}, ErrNotConfigured
}

// NeonVerifier validates EdDSA tokens from Neon Auth against its JWKS.
// The key set is fetched once and refreshed in the background.
type NeonVerifier struct {
	issuer string
	jwks   keyfunc.Keyfunc
}

// NewNeonVerifier prepares a verifier for the Neon Auth instance at baseURL.
// ctx bounds the background JWKS refresh.
func NewNeonVerifier(ctx context.Context, baseURL string) (*NeonVerifier, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{baseURL + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return &NeonVerifier{issuer: u.Scheme + "://" + u.Host, jwks: jwks}, nil
}

func (v *NeonVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	return identityFromToken(token, err)
}

// HMACVerifier validates HS256 tokens signed with a shared secret. It is meant
// for local development and tests.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return identityFromToken(token, err)
}

// Sign issues a token for playerID that expires after ttl.
func (v *HMACVerifier) Sign(playerID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  playerID,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func identityFromToken(token *jwt.Token, err error) (Identity, error) {
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	id := UserIDFromClaims(claims)
	if id == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{PlayerID: id, DisplayName: FirstNameFromClaims(claims)}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return DefaultDisplayName
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
