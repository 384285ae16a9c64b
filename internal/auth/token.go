package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Username string
	Role     string
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration, issuer string) *TokenIssuer {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, issuer: issuer, now: time.Now}
}

// Issue returns a signed token for username with the normalized role.
func (t *TokenIssuer) Issue(username, role string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, errors.New("issue token: empty username")
	}
	now := t.now()
	expiresAt := now.Add(t.expiry)
	claims := &jwtClaims{
		Role: NormalizeRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm and expiry and returns the identity.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &jwtClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := NormalizeRole(claims.Role)
	if claims.Subject == "" || !ValidRole(role) {
		return nil, ErrInvalidToken
	}
	return &Claims{Username: claims.Subject, Role: role}, nil
}
