package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"story-graph-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID.
const UserIDKey = models.UserContextKey

// JWTVerifier проверяет JWT токены пользователей.
type JWTVerifier struct {
	jwtSecret []byte
	logger    *zap.Logger
}

// NewJWTVerifier создает новый экземпляр JWTVerifier.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, fmt.Errorf("%w: JWT secret cannot be empty", models.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret: []byte(jwtSecret),
		logger:    logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken проверяет подпись и срок действия токена и извлекает claims.
func (v *JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil {
		v.logger.Debug("Failed to parse or verify token", zap.String("tokenSnippet", tokenSnippet(tokenString)), zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", models.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is invalid", models.ErrUnauthorized)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id missing", models.ErrUnauthorized)
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and stores the user id under UserIDKey.
func AuthMiddleware(verifier *JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Invalid Authorization header format")
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}

		claims, err := verifier.VerifyToken(parts[1])
		if err != nil {
			log.Warn("Access token verification failed", zap.Error(err))
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// UserIDFromContext returns the id stored by AuthMiddleware.
func UserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	val, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: user_id not found in context", models.ErrUnauthorized)
	}
	id, ok := val.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user_id in context", models.ErrUnauthorized)
	}
	return id, nil
}

// GenerateTestJWT подписывает токен для тестов.
func GenerateTestJWT(userID uuid.UUID, secretKey string, validity time.Duration) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign test JWT: %w", err)
	}
	return signed, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: message,
		Code:  models.ErrCodeUnauthorized,
	})
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	const limit = 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
