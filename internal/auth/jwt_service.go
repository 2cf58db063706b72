package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long an admin session stays valid without any refresh.
const DefaultSessionTTL = 7 * 24 * time.Hour

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates the signed tokens stored in the session cookie.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL reports the lifetime applied to new tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken signs a token for the user and returns it with its expiry.
func (s *JWTService) GenerateToken(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("jwt: user id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and validates a signed JWT, returning the application claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}

	return &claims, nil
}
