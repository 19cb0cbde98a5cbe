package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims - полезная нагрузка access-токена.
// Токен самодостаточен: сервер не хранит сессий, отзыв происходит
// через истечение срока или перепроверку статуса пользователя в middleware.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var (
	signingKey []byte
	tokenTTL   time.Duration
)

var ErrTokenInvalid = errors.New("invalid token")

// Init задает ключ подписи и срок жизни токена.
// Вызывается один раз на старте процесса, ротации ключа в рантайме нет.
func Init(secret string, ttl time.Duration) {
	signingKey = []byte(secret)
	tokenTTL = ttl
}

// GenerateToken выпускает подписанный HS256 токен
func GenerateToken(userID, role string) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("auth: signing key is not initialized")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ParseToken проверяет подпись, структуру и срок действия.
// Любой провал - единый ErrTokenInvalid, без деталей наружу.
func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
