package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/internal/storage"
	"clientdesk_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAdminService(t *testing.T) (AdminService, *fakeEmailProvider, storage.Storage, *gorm.DB) {
	t.Helper()
	auth.Init("test-secret", time.Hour)

	db := setupServiceDB(t)
	provider := &fakeEmailProvider{}

	store, err := storage.New(storage.Config{
		Type:     "local",
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	})
	require.NoError(t, err)

	svc := NewAdminService(
		repositories.NewUserRepository(),
		repositories.NewDocumentRepository(),
		repositories.NewVideoRepository(),
		repositories.NewMeetingRepository(),
		repositories.NewNotificationRepository(),
		repositories.NewChallengeRepository(),
		repositories.NewEmailLogRepository(),
		provider,
		store,
		nil, // видеохостинг в этих сценариях не трогается
	)
	return svc, provider, store, db
}

func seedUser(t *testing.T, db *gorm.DB, emailAddr string, plan models.SubscriptionPlan) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse-1")
	require.NoError(t, err)
	user := &models.User{
		FirstName:    "Seed",
		LastName:     "User",
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}
	if plan != "" {
		user.Subscription.Plan = plan
		user.Subscription.Status = models.SubscriptionStatusActive
	}
	require.NoError(t, repositories.NewUserRepository().Create(db, user))
	return user
}

func TestAdminService_ListUsersSearch(t *testing.T) {
	svc, _, _, db := newTestAdminService(t)

	seedUser(t, db, "anna@example.com", "")
	seedUser(t, db, "boris@example.com", "")
	seedUser(t, db, "clara@other.org", "")

	resp, err := svc.ListUsers(db, &dto.ListUsersQuery{Search: "example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)

	resp, err = svc.ListUsers(db, &dto.ListUsersQuery{Search: "clara"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)

	resp, err = svc.ListUsers(db, &dto.ListUsersQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
}

func TestAdminService_BanAndUnban(t *testing.T) {
	svc, _, _, db := newTestAdminService(t)
	user := seedUser(t, db, "anna@example.com", "")

	require.NoError(t, svc.BanUser(db, user.ID))

	userRepo := repositories.NewUserRepository()
	reloaded, err := userRepo.FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusBanned, reloaded.Status)

	// Забаненный невидим для выборки активных
	_, err = userRepo.FindActiveByID(db, user.ID)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	require.NoError(t, svc.UnbanUser(db, user.ID))
	reloaded, err = userRepo.FindActiveByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, reloaded.Status)
}

func TestAdminService_BanUnknownUser(t *testing.T) {
	svc, _, _, db := newTestAdminService(t)

	err := svc.BanUser(db, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAdminService_DeleteUserCascade(t *testing.T) {
	svc, _, store, db := newTestAdminService(t)
	user := seedUser(t, db, "anna@example.com", "")

	ctx := context.Background()
	key := "documents/" + user.ID + "/report.pdf"
	require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("%PDF-1.4")), "application/pdf"))

	docRepo := repositories.NewDocumentRepository()
	require.NoError(t, docRepo.Create(db, &models.Document{
		UserID:     user.ID,
		FileName:   "report.pdf",
		FileType:   "application/pdf",
		FileSize:   8,
		StorageKey: key,
		URL:        store.URL(key),
		UploadedBy: user.ID,
	}))

	notifRepo := repositories.NewNotificationRepository()
	require.NoError(t, notifRepo.Create(db, &models.Notification{
		UserID:  user.ID,
		Type:    "system",
		Message: "welcome aboard",
	}))

	result, err := svc.DeleteUser(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, result.FailedCleanups)

	userRepo := repositories.NewUserRepository()
	_, err = userRepo.FindByID(db, user.ID)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	docs, err := docRepo.FindAllForUser(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// Объект в хранилище тоже подчищен
	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// Повторное удаление сообщает об отсутствии
	_, err = svc.DeleteUser(ctx, db, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

// brokenStore имитирует недоступное хранилище при удалении объектов
type brokenStore struct {
	storage.Storage
	deleteErr error
}

func (s *brokenStore) Delete(ctx context.Context, key string) error {
	return s.deleteErr
}

func TestAdminService_DeleteUserReportsFailedCleanups(t *testing.T) {
	auth.Init("test-secret", time.Hour)
	db := setupServiceDB(t)

	localStore, err := storage.New(storage.Config{
		Type:     "local",
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	})
	require.NoError(t, err)
	store := &brokenStore{Storage: localStore, deleteErr: errors.New("storage unavailable")}

	svc := NewAdminService(
		repositories.NewUserRepository(),
		repositories.NewDocumentRepository(),
		repositories.NewVideoRepository(),
		repositories.NewMeetingRepository(),
		repositories.NewNotificationRepository(),
		repositories.NewChallengeRepository(),
		repositories.NewEmailLogRepository(),
		&fakeEmailProvider{},
		store,
		nil,
	)

	user := seedUser(t, db, "oleg@example.com", "")
	ctx := context.Background()
	key := "documents/" + user.ID + "/contract.pdf"
	require.NoError(t, localStore.Save(ctx, key, bytes.NewReader([]byte("%PDF-1.4")), "application/pdf"))

	docRepo := repositories.NewDocumentRepository()
	require.NoError(t, docRepo.Create(db, &models.Document{
		UserID:     user.ID,
		FileName:   "contract.pdf",
		FileType:   "application/pdf",
		FileSize:   8,
		StorageKey: key,
		URL:        localStore.URL(key),
		UploadedBy: user.ID,
	}))

	result, err := svc.DeleteUser(ctx, db, user.ID)
	require.NoError(t, err)

	// База вычищена, но сирота в хранилище назван поименно
	require.Len(t, result.FailedCleanups, 1)
	assert.Equal(t, key, result.FailedCleanups[0])

	userRepo := repositories.NewUserRepository()
	_, err = userRepo.FindByID(db, user.ID)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestAdminService_SendEmailLogsOnlyDelivered(t *testing.T) {
	svc, provider, _, db := newTestAdminService(t)
	admin := seedUser(t, db, "admin@example.com", "")

	req := &dto.SendEmailRequest{
		To:      []string{"client@example.com"},
		Subject: "Invoice",
		Message: "Please find attached",
	}

	// Отказ доставки не оставляет следа в истории
	provider.failNext = true
	err := svc.SendEmail(db, admin.ID, req, nil)
	require.Error(t, err)

	history, err := svc.EmailHistory(db, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, history.Total)

	attachment := email.Attachment{
		Name:        "invoice.pdf",
		Content:     []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	}
	require.NoError(t, svc.SendEmail(db, admin.ID, req, []email.Attachment{attachment}))

	history, err = svc.EmailHistory(db, "", 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, history.Total)

	require.Len(t, provider.sent, 1)
	assert.Equal(t, []string{"client@example.com"}, provider.sent[0].To)

	logs, ok := history.Items.([]*dto.EmailLogDTO)
	require.True(t, ok)
	assert.Equal(t, "Invoice", logs[0].Subject)
	assert.Equal(t, []string{"invoice.pdf"}, logs[0].Attachments)
	assert.Equal(t, admin.ID, logs[0].SentBy)
}

func TestAdminService_EmailHistorySearch(t *testing.T) {
	svc, _, _, db := newTestAdminService(t)
	admin := seedUser(t, db, "admin@example.com", "")

	subjects := []string{"Invoice March", "Invoice April", "Welcome aboard"}
	for _, subject := range subjects {
		require.NoError(t, svc.SendEmail(db, admin.ID, &dto.SendEmailRequest{
			To:      []string{"client@example.com"},
			Subject: subject,
			Message: "body",
		}, nil))
	}

	history, err := svc.EmailHistory(db, "invoice", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, history.Total)

	logs, ok := history.Items.([]*dto.EmailLogDTO)
	require.True(t, ok)
	for _, log := range logs {
		assert.True(t, strings.HasPrefix(log.Subject, "Invoice"))
	}
}

func TestAdminService_Stats(t *testing.T) {
	svc, _, _, db := newTestAdminService(t)

	seedUser(t, db, "basic@example.com", models.PlanBasic)
	seedUser(t, db, "pro1@example.com", models.PlanProfessional)
	seedUser(t, db, "pro2@example.com", models.PlanProfessional)
	seedUser(t, db, "free@example.com", "")

	stats, err := svc.Stats(db)
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.UsersByPlan[string(models.PlanBasic)])
	assert.EqualValues(t, 2, stats.UsersByPlan[string(models.PlanProfessional)])
	assert.EqualValues(t, 0, stats.TotalDocuments)
}
