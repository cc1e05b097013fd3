// Package auth hashes passwords and issues and verifies signed session
// tokens. A Service keeps only read-only configuration and is safe for
// concurrent use.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are
// truncated so any two inputs sharing the first 72 bytes verify alike.
const MaxPasswordBytes = 72

// Claims is the JWT claim set: user_id, username, iat and exp.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, cost int) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, cost: cost, now: time.Now}
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

func (s *Service) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches hash. Malformed or foreign
// hashes simply do not match.
func (s *Service) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain)) == nil
}

func (s *Service) CreateAccessToken(userID int64, username string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the claims of a valid token. A correctly signed token
// past its expiry yields ErrExpiredSession; anything else that fails
// yields ErrMalformedSession.
func (s *Service) VerifyToken(tokenString string) (*models.Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredSession
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedSession, err)
	}

	if claims.UserID == 0 || claims.Username == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing claims", common.ErrMalformedSession)
	}

	return &models.Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) ExtractIdentity(tokenString string) (*models.Identity, bool) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, false
	}
	return claims.Identity(), true
}
