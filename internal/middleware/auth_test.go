package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.Init("test-secret", time.Hour)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.VerificationChallenge{}))

	router := gin.New()
	router.Use(DBMiddleware(db))
	return router, db
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole, status models.UserStatus) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        string(role) + "-" + string(status) + "@example.com",
		PasswordHash: "irrelevant",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, repositories.NewUserRepository().Create(db, user))
	return user
}

func protectedOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c)})
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := setupAuthTest(t)
	router.GET("/me", AuthMiddleware(repositories.NewUserRepository()), protectedOK)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedToken(t *testing.T) {
	router, _ := setupAuthTest(t)
	router.GET("/me", AuthMiddleware(repositories.NewUserRepository()), protectedOK)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ActiveUserPasses(t *testing.T) {
	router, db := setupAuthTest(t)
	router.GET("/me", AuthMiddleware(repositories.NewUserRepository()), protectedOK)

	user := createTestUser(t, db, models.UserRoleUser, models.UserStatusActive)
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

func TestAuthMiddleware_BannedUserRejected(t *testing.T) {
	router, db := setupAuthTest(t)
	router.GET("/me", AuthMiddleware(repositories.NewUserRepository()), protectedOK)

	user := createTestUser(t, db, models.UserRoleUser, models.UserStatusActive)
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	require.NoError(t, err)

	// Бан после выдачи токена: токен формально валиден, но отклоняется
	require.NoError(t, repositories.NewUserRepository().UpdateStatus(db, user.ID, models.UserStatusBanned))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddleware(t *testing.T) {
	router, db := setupAuthTest(t)
	userRepo := repositories.NewUserRepository()
	router.GET("/admin", AuthMiddleware(userRepo), AdminMiddleware(), protectedOK)

	regular := createTestUser(t, db, models.UserRoleUser, models.UserStatusActive)
	admin := createTestUser(t, db, models.UserRoleAdmin, models.UserStatusActive)

	regularToken, err := auth.GenerateToken(regular.ID, string(regular.Role))
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken(admin.ID, string(admin.Role))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+regularToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequire2FA(t *testing.T) {
	router, db := setupAuthTest(t)
	userRepo := repositories.NewUserRepository()
	engine := challenge.NewEngine(repositories.NewChallengeRepository(), 10*time.Minute)
	router.POST("/sensitive", AuthMiddleware(userRepo), Require2FA(engine), protectedOK)

	user := createTestUser(t, db, models.UserRoleUser, models.UserStatusActive)
	user.TwoFactorEnabled = true
	require.NoError(t, userRepo.Update(db, user))

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	require.NoError(t, err)

	// Без второго фактора - 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sensitive", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// С действующим кодом - 200
	var code string
	require.NoError(t, engine.Issue(db, user.ID, models.PurposeLogin, func(c string) error {
		code = c
		return nil
	}))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sensitive", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-2FA-Token", code)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequire2FA_DisabledFlagPassesThrough(t *testing.T) {
	router, db := setupAuthTest(t)
	userRepo := repositories.NewUserRepository()
	engine := challenge.NewEngine(repositories.NewChallengeRepository(), 10*time.Minute)
	router.POST("/sensitive", AuthMiddleware(userRepo), Require2FA(engine), protectedOK)

	user := createTestUser(t, db, models.UserRoleUser, models.UserStatusActive)
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sensitive", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
