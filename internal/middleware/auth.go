package middleware

import (
	"net/http"
	"strings"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/pkg/apperrors"
	"clientdesk_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware проверяет JWT и перечитывает пользователя из базы на
// каждом запросе. Забаненный или удаленный пользователь получает 401
// даже с формально валидным токеном: так бан отзывает выданные токены.
func AuthMiddleware(userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		user, err := userRepo.FindActiveByID(dbFromContext(c), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Set(string(contextkeys.CurrentUserKey), user)
		c.Next()
	}
}

// AdminMiddleware пропускает только администраторов. Ставится после AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
			return
		}
		c.Next()
	}
}

// Require2FA требует второй фактор для чувствительных операций.
// Пользователь без включенной двухфакторки и администратор проходят
// без проверки; остальные предъявляют код в заголовке X-2FA-Token.
func Require2FA(engine *challenge.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		if !user.TwoFactorEnabled || user.IsAdmin() {
			c.Next()
			return
		}

		code := c.GetHeader("X-2FA-Token")
		if code == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Two-factor token required"})
			return
		}

		if err := engine.Validate(dbFromContext(c), user.ID, models.PurposeLogin, code); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrInvalidCode.Message})
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя, загруженного AuthMiddleware
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(string(contextkeys.CurrentUserKey))
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, ok := userID.(string)
	if !ok {
		return ""
	}
	return id
}

func dbFromContext(c *gin.Context) *gorm.DB {
	val, ok := c.Get(string(contextkeys.DBContextKey))
	if !ok {
		panic("critical error: DBMiddleware did not set the db key")
	}
	db, ok := val.(*gorm.DB)
	if !ok {
		panic("critical error: db in context has incorrect type")
	}
	return db
}
