package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"menu-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey      = []byte("menuservicesecretkey")
	expirationHours = 720
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email        string `json:"email"`
	UserID       uint   `json:"user_id"`
	RestaurantID *uint  `json:"restaurant_id,omitempty"` // Tenant scope of the caller, if linked
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expirationHours = cfg.ExpirationHours
	}
}

// GenerateToken creates a JWT token with user information
func GenerateToken(email string, userID uint, restaurantID *uint) (string, error) {
	claims := UserClaims{
		Email:        email,
		UserID:       userID,
		RestaurantID: restaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
