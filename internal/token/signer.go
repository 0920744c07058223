package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// ErrInvalidToken covers every session verification failure: malformed,
// tampered, or expired tokens all look the same to callers.
var ErrInvalidToken = errors.New("invalid session token")

// Signer mints and verifies stateless session tokens bound to a user ID.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a Signer with the shared server secret and the
// signing validity window.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl}
}

// Sign produces an HS256 JWT whose subject is the user ID.
func (s *Signer) Sign(userID int64) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: s.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	claims := gojwt.Claims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(s.ttl)),
	}

	serialized, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize session token: %w", err)
	}
	return serialized, nil
}

// Verify checks the signature and expiry and returns the embedded user ID.
func (s *Signer) Verify(tokenStr string) (int64, error) {
	parsed, err := gojwt.ParseSigned(tokenStr, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return 0, ErrInvalidToken
	}

	var claims gojwt.Claims
	if err := parsed.Claims(s.secret, &claims); err != nil {
		return 0, ErrInvalidToken
	}

	if err := claims.Validate(gojwt.Expected{Time: time.Now().UTC()}); err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
