package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

// TokenConfig defines verification parameters for access tokens issued by the
// platform identity provider.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// TokenService validates bearer tokens. This service never issues tokens;
// issuance lives with the identity provider.
type TokenService struct {
	config TokenConfig
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	return &TokenService{config: config}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if s.config.Issuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != s.config.Issuer {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token issuer mismatch")
		}
	}
	if len(s.config.Audience) > 0 {
		audience, err := claims.GetAudience()
		if err != nil || !audienceAllowed(audience, s.config.Audience) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token audience mismatch")
		}
	}

	if claims.UserID == "" || claims.StudioID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing identity claims")
	}
	if claims.Role != models.RoleInstructor && claims.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}

	return claims, nil
}

func audienceAllowed(have jwt.ClaimStrings, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
