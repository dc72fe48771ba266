package utils // package utils provides helper functions for token issuing and password hashing

import (
	"errors" // sentinel errors for claim validation
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
	"github.com/google/uuid"       // random token ids

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// ErrMissingSubject is returned when a token verifies but carries no user id.
var ErrMissingSubject = errors.New("token has no user id")

// SignedToken is a serialized JWT together with its expiry.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims is the payload of an access token.  Besides the identity
// fields it carries exp, iat and a random jti so two tokens minted in the
// same second for the same user still differ.
type AccessClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token: the user id only, plus
// the registered exp/iat/jti claims.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens.  The two kinds
// use distinct secrets so a refresh token can never pass as an access token
// and vice versa.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer builds an issuer from the configured secrets and lifetimes.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccessToken builds and signs an HS256 access token for u.
func (t *TokenIssuer) IssueAccessToken(u model.User) (SignedToken, error) {
	now := t.now()
	exp := now.Add(t.accessTTL)
	claims := AccessClaims{
		UserID:           u.ID,
		Email:            u.Email,
		Username:         u.Username,
		FullName:         u.FullName,
		RegisteredClaims: t.registered(now, exp),
	}
	return sign(claims, t.accessSecret, exp)
}

// IssueRefreshToken builds and signs an HS256 refresh token for u.
func (t *TokenIssuer) IssueRefreshToken(u model.User) (SignedToken, error) {
	now := t.now()
	exp := now.Add(t.refreshTTL)
	claims := RefreshClaims{
		UserID:           u.ID,
		RegisteredClaims: t.registered(now, exp),
	}
	return sign(claims, t.refreshSecret, exp)
}

// VerifyAccessToken checks signature, algorithm and expiry against the
// access secret and returns the claims.
func (t *TokenIssuer) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(raw, claims, t.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// VerifyRefreshToken checks signature, algorithm and expiry against the
// refresh secret and returns the claims.
func (t *TokenIssuer) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(raw, claims, t.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func (t *TokenIssuer) registered(now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims, secret []byte) error {
	// Only HS256 is accepted; the parser rejects alg=none and asymmetric
	// algorithms before the key function is consulted.
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

func sign(claims jwt.Claims, secret []byte, exp time.Time) (SignedToken, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}
