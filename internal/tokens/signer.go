package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const refreshTokenSize = 64

var (
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrClaimsInvalid    = errors.New("token claims are invalid")
	ErrExpired          = errors.New("token is expired")
)

// Signer signs and verifies HS256 access tokens for a single issuer/audience pair.
// It is safe for concurrent use.
type Signer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewSigner(key []byte, issuer, audience string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{
		key:      slices.Clone(key),
		issuer:   issuer,
		audience: audience,
		now:      now,
	}
}

func (s *Signer) Sign(claims AccessClaims, issuedAt, expiresAt time.Time) (string, error) {
	claims.Issuer = s.issuer
	claims.Audience = jwt.ClaimStrings{s.audience}
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, issuer and audience of tokenStr.
// Expiry is only enforced when validateLifetime is set; every other check runs regardless.
func (s *Signer) Verify(tokenStr string, validateLifetime bool) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if validateLifetime {
		opts = append(opts, jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims AccessClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenInvalidClaims):
			return nil, fmt.Errorf("%w: %w", ErrClaimsInvalid, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
	}

	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrClaimsInvalid, claims.Issuer)
	}
	if !slices.Contains(claims.Audience, s.audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrClaimsInvalid)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrClaimsInvalid)
	}
	return &claims, nil
}

// GenerateRefreshToken returns an opaque base64url string with 512 bits of entropy.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
