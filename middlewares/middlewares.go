package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const OperatorKey = "operator"

// Auth requires a bearer HS256 token signed with signingKey. An empty key
// turns the check off.
func Auth(signingKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signingKey == "" {
			c.Next()
			return
		}

		claims, err := ValidateToken(c.GetHeader("Authorization"), signingKey)
		if err != nil {
			zap.L().Info("rejected request", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(OperatorKey, claims.Subject)
		c.Next()
	}
}

func ValidateToken(authorizationHeader, signingKey string) (*jwt.StandardClaims, error) {
	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return nil, errors.New("invalid-token")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, "Bearer "))

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected-signing-method-%v", token.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid-token")
	}
	return claims, nil
}
