package challenge

import (
	"errors"
	"testing"
	"time"

	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/pkg/apperrors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.VerificationChallenge{}))
	return db
}

func newTestEngine(ttl time.Duration) *Engine {
	return NewEngine(repositories.NewChallengeRepository(), ttl)
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	// 100 кодов из миллиона не должны совпасть все до единого
	assert.Greater(t, len(seen), 1)
}

func TestEngine_IssueAndValidate(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var delivered string
	err := engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		delivered = code
		return nil
	})
	require.NoError(t, err)
	require.Len(t, delivered, 6)

	err = engine.Validate(db, "user-1", models.PurposeLogin, delivered)
	assert.NoError(t, err)
}

func TestEngine_ValidateWrongCode(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var delivered string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		delivered = code
		return nil
	}))

	wrong := "000000"
	if wrong == delivered {
		wrong = "000001"
	}
	err := engine.Validate(db, "user-1", models.PurposeLogin, wrong)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)

	// Неверная попытка не сжигает действующий код
	assert.NoError(t, engine.Validate(db, "user-1", models.PurposeLogin, delivered))
}

func TestEngine_CodeIsSingleUse(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var delivered string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		delivered = code
		return nil
	}))

	require.NoError(t, engine.Validate(db, "user-1", models.PurposeLogin, delivered))

	// Повторное предъявление принятого кода проваливается
	err := engine.Validate(db, "user-1", models.PurposeLogin, delivered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
}

func TestEngine_ExpiredCode(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(-1 * time.Minute) // код рождается уже просроченным

	var delivered string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		delivered = code
		return nil
	}))

	err := engine.Validate(db, "user-1", models.PurposeLogin, delivered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)

	// Просроченная запись удалена при первой же проверке
	repo := repositories.NewChallengeRepository()
	_, findErr := repo.Find(db, "user-1", models.PurposeLogin)
	assert.ErrorIs(t, findErr, repositories.ErrChallengeNotFound)
}

func TestEngine_DeliveryFailureKeepsOldCode(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var first string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		first = code
		return nil
	}))

	// Доставка второго кода падает: в базе должен остаться первый
	err := engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		return errors.New("smtp connection refused")
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)

	assert.NoError(t, engine.Validate(db, "user-1", models.PurposeLogin, first))
}

func TestEngine_ReissueReplacesCode(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var first, second string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		first = code
		return nil
	}))
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		second = code
		return nil
	}))

	if first != second {
		// Старый код заменен и больше не принимается
		assert.ErrorIs(t, engine.Validate(db, "user-1", models.PurposeLogin, first), apperrors.ErrInvalidCode)
	}
	assert.NoError(t, engine.Validate(db, "user-1", models.PurposeLogin, second))
}

func TestEngine_PurposesAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var loginCode, resetCode string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		loginCode = code
		return nil
	}))
	require.NoError(t, engine.Issue(db, "user-1", models.PurposePasswordReset, func(code string) error {
		resetCode = code
		return nil
	}))

	// Выдача кода сброса пароля не затерла код логина
	assert.NoError(t, engine.Validate(db, "user-1", models.PurposeLogin, loginCode))
	assert.NoError(t, engine.Validate(db, "user-1", models.PurposePasswordReset, resetCode))
}

func TestEngine_Revoke(t *testing.T) {
	db := setupTestDB(t)
	engine := newTestEngine(10 * time.Minute)

	var delivered string
	require.NoError(t, engine.Issue(db, "user-1", models.PurposeLogin, func(code string) error {
		delivered = code
		return nil
	}))

	require.NoError(t, engine.Revoke(db, "user-1", models.PurposeLogin))
	assert.ErrorIs(t, engine.Validate(db, "user-1", models.PurposeLogin, delivered), apperrors.ErrInvalidCode)
}
