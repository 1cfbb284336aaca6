package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines the JWT payload. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	jwtlib.RegisteredClaims
}

// Options configures token issuance and validation.
type Options struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// GenerateToken issues a signed bearer token for the given subject.
func GenerateToken(userID, email string, opts Options) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			Issuer:    opts.Issuer,
			Audience:  jwtlib.ClaimStrings{opts.Audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(opts.TTL)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(opts.Secret))
}

// Parse validates signature, issuer, audience and expiry, and extracts claims.
func Parse(token string, opts Options) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(opts.Secret), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithIssuer(opts.Issuer),
		jwtlib.WithAudience(opts.Audience),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}
