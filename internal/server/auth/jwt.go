// Package auth mints and parses the session tokens carrying an
// authenticated identity. Tokens are HS256 JWTs; they are the only place a
// session identity lives, nothing is stored server-side.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/server/models"
)

// Claims carries the registered claims plus the identity fields.
type Claims struct {
	jwt.RegisteredClaims
	Role string
	Name string
	Ref  string
}

func GenerateToken(id *models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Role: string(id.Role),
		Name: id.Name,
		Ref:  id.Ref,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func IdentityFromToken(tokenString string, secretKey []byte) (*models.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if role != models.RoleClinician && role != models.RolePatient {
		return nil, common.ErrInvalidToken
	}

	return &models.Identity{Role: role, Name: claims.Name, Ref: claims.Ref}, nil
}
