package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type identityClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks identity provider tokens signed either with a shared
// HS256 secret or an RS256 key.
type TokenVerifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	audiences []string
}

// NewTokenVerifier prefers publicKeyPEM when set. Empty audiences disables
// the audience check; empty issuer disables the issuer check.
func NewTokenVerifier(secret, publicKeyPEM, issuer string, audiences ...string) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: issuer}
	for _, aud := range audiences {
		if aud != "" {
			v.audiences = append(v.audiences, aud)
		}
	}
	if publicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		v.publicKey = key
		return v, nil
	}
	if secret == "" {
		return nil, errors.New("token secret or public key required")
	}
	v.secret = []byte(secret)
	return v, nil
}

// Verify validates raw and returns the identity it asserts and its expiry.
func (v *TokenVerifier) Verify(raw string) (*Identity, time.Time, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.publicKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if v.publicKey != nil {
			return v.publicKey, nil
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if len(v.audiences) > 0 && !slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(v.audiences, aud)
	}) {
		return nil, time.Time{}, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, time.Time{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	identity := &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}
	return identity, claims.ExpiresAt.Time, nil
}

// SignHS256 issues an HS256 identity token. Used by the dev seed and tests.
func SignHS256(secret string, identity Identity, issuer string, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
