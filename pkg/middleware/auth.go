package middleware

import (
	"bitrook/stashbin-api/internal/model"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireAuth validates the auth_token cookie and sets userID for the
// handlers behind it. Requests without a valid token are rejected.
func RequireAuth(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		userID, err := authedUser(c, d)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected auth cookie", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuth sets userID when the request carries a valid auth cookie and
// lets everything else through untouched. Endpoints behind it serve both
// logged-in users and guests.
func OptionalAuth(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := authedUser(c, d)
		if err == nil {
			c.Set("userID", userID)
		}

		c.Next()
	}
}

func authedUser(c *gin.Context, d *gorm.DB) (string, error) {
	tokenStr, err := c.Cookie("auth_token")
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token, %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id claim missing")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", fmt.Errorf("exp claim missing")
	}

	if time.Now().Unix() >= int64(exp) {
		return "", fmt.Errorf("token expired")
	}

	// In case someone logs in, deletes their account and then comes back
	// with the old cookie we'll reject the request
	var count int64
	if err := d.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to check if user exists, %w", err)
	}
	if count == 0 {
		return "", fmt.Errorf("user not found")
	}

	return userID, nil
}
