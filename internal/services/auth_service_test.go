package services

import (
	"errors"
	"testing"
	"time"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeEmailProvider перехватывает исходящие письма вместо SMTP
type fakeEmailProvider struct {
	lastCode  string
	lastTo    string
	sent      []*email.Message
	failNext  bool
	codesSent int
}

func (f *fakeEmailProvider) Send(msg *email.Message) error {
	if f.failNext {
		f.failNext = false
		return errors.New("smtp connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmailProvider) SendVerificationCode(to, name, code, reason string) error {
	if f.failNext {
		f.failNext = false
		return errors.New("smtp connection refused")
	}
	f.lastTo = to
	f.lastCode = code
	f.codesSent++
	return nil
}

func (f *fakeEmailProvider) SendTemplate(to []string, subject, templateName string, data email.TemplateData) error {
	return nil
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.VerificationChallenge{},
		&models.Document{},
		&models.Video{},
		&models.Meeting{},
		&models.MeetingParticipant{},
		&models.Notification{},
		&models.EmailLog{},
	))
	return db
}

func newTestAuthService(t *testing.T) (AuthService, *fakeEmailProvider, *gorm.DB) {
	t.Helper()
	auth.Init("test-secret", time.Hour)

	db := setupServiceDB(t)
	provider := &fakeEmailProvider{}
	engine := challenge.NewEngine(repositories.NewChallengeRepository(), 10*time.Minute)
	svc := NewAuthService(repositories.NewUserRepository(), engine, provider)
	return svc, provider, db
}

func registerVerifiedUser(t *testing.T, svc AuthService, provider *fakeEmailProvider, db *gorm.DB, emailAddr, password string) *dto.UserDTO {
	t.Helper()

	resp, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     emailAddr,
		Password:  password,
	})
	require.NoError(t, err)
	require.True(t, resp.RequiresVerification)

	verified, err := svc.VerifyCode(db, &dto.VerifyCodeRequest{
		Email: emailAddr,
		Code:  provider.lastCode,
	})
	require.NoError(t, err)
	return verified.User
}

func TestAuthService_RegisterDeliversCode(t *testing.T) {
	svc, provider, db := newTestAuthService(t)

	resp, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Anna",
		LastName:  "Petrova",
		Email:     "anna@example.com",
		Password:  "correct-horse-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresVerification)
	assert.Equal(t, "anna@example.com", resp.Email)
	assert.Equal(t, "anna@example.com", provider.lastTo)
	assert.Len(t, provider.lastCode, 6)
}

func TestAuthService_RegisterWeakPassword(t *testing.T) {
	svc, _, db := newTestAuthService(t)

	_, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Anna",
		Email:     "anna@example.com",
		Password:  "short",
	})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	_, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Other",
		Email:     "anna@example.com",
		Password:  "correct-horse-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestAuthService_RegisterRollsBackOnDeliveryFailure(t *testing.T) {
	svc, provider, db := newTestAuthService(t)

	provider.failNext = true
	_, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Anna",
		Email:     "anna@example.com",
		Password:  "correct-horse-1",
	})
	require.Error(t, err)

	// Аккаунт откатился, email снова свободен
	_, err = svc.Register(db, &dto.RegisterRequest{
		FirstName: "Anna",
		Email:     "anna@example.com",
		Password:  "correct-horse-1",
	})
	assert.NoError(t, err)
}

func TestAuthService_LoginRequiresSecondStep(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	resp, err := svc.Login(db, &dto.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse-1",
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresVerification)
	assert.Empty(t, resp.Token)

	verified, err := svc.VerifyCode(db, &dto.VerifyCodeRequest{
		Email:   "anna@example.com",
		Code:    provider.lastCode,
		IsLogin: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, verified.Token)
	assert.Equal(t, "anna@example.com", verified.User.Email)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	_, err := svc.Login(db, &dto.LoginRequest{
		Email:    "anna@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	svc, _, db := newTestAuthService(t)

	_, err := svc.Login(db, &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse-1",
	})
	// Несуществующий аккаунт неотличим от неверного пароля
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_LoginBannedUser(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	user := registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	userRepo := repositories.NewUserRepository()
	require.NoError(t, userRepo.UpdateStatus(db, user.ID, models.UserStatusBanned))

	codesBefore := provider.codesSent
	_, err := svc.Login(db, &dto.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrUserBanned)
	// Забаненному код не высылается
	assert.Equal(t, codesBefore, provider.codesSent)
}

func TestAuthService_AdminLoginSkipsSecondStep(t *testing.T) {
	svc, _, db := newTestAuthService(t)

	hash, err := auth.HashPassword("admin-password-1")
	require.NoError(t, err)
	admin := &models.User{
		FirstName:    "Root",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, repositories.NewUserRepository().Create(db, admin))

	resp, err := svc.Login(db, &dto.LoginRequest{
		Email:    "admin@example.com",
		Password: "admin-password-1",
	})
	require.NoError(t, err)

	assert.False(t, resp.RequiresVerification)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_VerifyCodeWrongCode(t *testing.T) {
	svc, provider, db := newTestAuthService(t)

	_, err := svc.Register(db, &dto.RegisterRequest{
		FirstName: "Anna",
		Email:     "anna@example.com",
		Password:  "correct-horse-1",
	})
	require.NoError(t, err)

	wrong := "000000"
	if wrong == provider.lastCode {
		wrong = "000001"
	}
	_, err = svc.VerifyCode(db, &dto.VerifyCodeRequest{
		Email: "anna@example.com",
		Code:  wrong,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	require.NoError(t, svc.ForgotPassword(db, &dto.ForgotPasswordRequest{Email: "anna@example.com"}))

	require.NoError(t, svc.ResetPassword(db, &dto.ResetPasswordRequest{
		Email:       "anna@example.com",
		Code:        provider.lastCode,
		NewPassword: "brand-new-pass-2",
	}))

	// Старый пароль больше не подходит, новый работает
	_, err := svc.Login(db, &dto.LoginRequest{Email: "anna@example.com", Password: "correct-horse-1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	resp, err := svc.Login(db, &dto.LoginRequest{Email: "anna@example.com", Password: "brand-new-pass-2"})
	require.NoError(t, err)
	assert.True(t, resp.RequiresVerification)
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, db := newTestAuthService(t)

	err := svc.ForgotPassword(db, &dto.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAuthService_ResetCodeIsSingleUse(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	require.NoError(t, svc.ForgotPassword(db, &dto.ForgotPasswordRequest{Email: "anna@example.com"}))
	code := provider.lastCode

	require.NoError(t, svc.ResetPassword(db, &dto.ResetPasswordRequest{
		Email:       "anna@example.com",
		Code:        code,
		NewPassword: "brand-new-pass-2",
	}))

	err := svc.ResetPassword(db, &dto.ResetPasswordRequest{
		Email:       "anna@example.com",
		Code:        code,
		NewPassword: "another-pass-33",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, provider, db := newTestAuthService(t)
	user := registerVerifiedUser(t, svc, provider, db, "anna@example.com", "correct-horse-1")

	err := svc.ChangePassword(db, user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "brand-new-pass-2",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(db, user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "correct-horse-1",
		NewPassword:     "brand-new-pass-2",
	}))

	resp, err := svc.Login(db, &dto.LoginRequest{Email: "anna@example.com", Password: "brand-new-pass-2"})
	require.NoError(t, err)
	assert.True(t, resp.RequiresVerification)
}
