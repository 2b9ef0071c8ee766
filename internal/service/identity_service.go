package service

import (
	"churchhealth/internal/model"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityService issues and reads the tokens that carry a respondent's
// identity between requests. It grants no permissions.
type IdentityService struct {
	jwtSecret []byte
	ttl       time.Duration
}

// NewIdentityService creates a new identity service
func NewIdentityService(secret string, ttl time.Duration) *IdentityService {
	return &IdentityService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
	}
}

// NewClientID returns a fresh client namespace for a device that has none
func (s *IdentityService) NewClientID() string {
	return uuid.New().String()
}

// IssueToken signs the identity into an HS256 token
func (s *IdentityService) IssueToken(id model.Identity) (string, error) {
	now := time.Now()
	claims := &model.IdentityClaims{
		ClientID:   id.ClientID,
		Name:       id.User.Name,
		Email:      id.User.Email,
		ChurchName: id.User.ChurchName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.User.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses an identity token and returns its claims
func (s *IdentityService) ValidateToken(tokenString string) (*model.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.IdentityClaims)
	if !ok || !token.Valid || claims.ClientID == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
