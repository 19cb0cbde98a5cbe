package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/billing"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testPriceIDs = map[string]string{
	string(models.PlanBasic):        "price_basic",
	string(models.PlanProfessional): "price_pro",
	string(models.PlanEnterprise):   "price_ent",
}

// fakeGateway поднимает httptest-сервер вместо платежного шлюза
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		json.NewEncoder(w).Encode(map[string]string{
			"id":    "cus_test_1",
			"email": r.PostFormValue("email"),
			"name":  r.PostFormValue("name"),
		})
	})
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostFormValue("mode"))
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_test_1",
			"url": "https://gateway.test/pay/cs_test_1",
		})
	})
	mux.HandleFunc("/v1/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                   "sub_test_1",
			"customer":             "cus_test_1",
			"status":               "active",
			"cancel_at_period_end": true,
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestSubscriptionService(t *testing.T) (SubscriptionService, *gorm.DB) {
	t.Helper()
	auth.Init("test-secret", time.Hour)

	db := setupServiceDB(t)
	gateway := billing.NewClient("sk_test", fakeGateway(t).URL)
	svc := NewSubscriptionService(
		repositories.NewUserRepository(),
		repositories.NewNotificationRepository(),
		gateway,
		testPriceIDs,
		"https://app.clientdesk.test",
	)
	return svc, db
}

func webhookEvent(t *testing.T, eventType string, object interface{}) *billing.Event {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	event := &billing.Event{ID: "evt_test_1", Type: eventType}
	event.Data.Object = raw
	return event
}

func TestSubscriptionService_CheckoutInvalidPlan(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	_, err := svc.Checkout(context.Background(), db, user.ID, &dto.CheckoutRequest{Plan: "Platinum"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPlan)
}

func TestSubscriptionService_RegistrationDoesNotTouchGateway(t *testing.T) {
	authSvc, provider, db := newTestAuthService(t)

	user := registerVerifiedUser(t, authSvc, provider, db, "fresh@example.com", "correct-horse-1")

	// Покупатель в шлюзе появляется лениво, при первой оплате
	reloaded, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Subscription.CustomerID)
	assert.Empty(t, reloaded.Subscription.Plan)
}

func TestSubscriptionService_CheckoutCreatesCustomerLazily(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	resp, err := svc.Checkout(context.Background(), db, user.ID, &dto.CheckoutRequest{
		Plan: string(models.PlanProfessional),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.test/pay/cs_test_1", resp.CheckoutURL)

	// Покупатель в шлюзе создан и привязан к записи
	reloaded, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_test_1", reloaded.Subscription.CustomerID)
}

func TestSubscriptionService_GetMySubscriptionWithoutPlan(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	_, err := svc.GetMySubscription(db, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSubscription)
}

// verifyGateway - шлюз для сценариев сверки сессии: сессия привязана
// к конкретному пользователю через metadata
func verifyGateway(t *testing.T, ownerID string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkout/sessions/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "cs_verify_1",
			"customer":     "cus_verify_1",
			"subscription": "sub_verify_1",
			"metadata":     map[string]string{"user_id": ownerID},
		})
	})
	mux.HandleFunc("/v1/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                   "sub_verify_1",
			"customer":             "cus_verify_1",
			"status":               "active",
			"cancel_at_period_end": false,
			"current_period_end":   time.Now().Add(30 * 24 * time.Hour).Unix(),
			"items": map[string]interface{}{
				"data": []map[string]interface{}{
					{"price": map[string]string{"id": "price_pro"}},
				},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSubscriptionService_VerifySessionActivatesPlan(t *testing.T) {
	auth.Init("test-secret", time.Hour)
	db := setupServiceDB(t)
	user := seedUser(t, db, "anna@example.com", "")

	gateway := billing.NewClient("sk_test", verifyGateway(t, user.ID).URL)
	svc := NewSubscriptionService(
		repositories.NewUserRepository(),
		repositories.NewNotificationRepository(),
		gateway,
		testPriceIDs,
		"https://app.clientdesk.test",
	)

	sub, err := svc.VerifySession(context.Background(), db, user.ID, &dto.VerifySessionRequest{
		SessionID: "cs_verify_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanProfessional, sub.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.CurrentPeriodEnd.After(time.Now()))

	reloaded, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_verify_1", reloaded.Subscription.CustomerID)
	assert.Equal(t, "sub_verify_1", reloaded.Subscription.SubscriptionID)
}

func TestSubscriptionService_VerifySessionForeignSessionRejected(t *testing.T) {
	auth.Init("test-secret", time.Hour)
	db := setupServiceDB(t)
	owner := seedUser(t, db, "anna@example.com", "")
	intruder := seedUser(t, db, "boris@example.com", "")

	gateway := billing.NewClient("sk_test", verifyGateway(t, owner.ID).URL)
	svc := NewSubscriptionService(
		repositories.NewUserRepository(),
		repositories.NewNotificationRepository(),
		gateway,
		testPriceIDs,
		"https://app.clientdesk.test",
	)

	_, err := svc.VerifySession(context.Background(), db, intruder.ID, &dto.VerifySessionRequest{
		SessionID: "cs_verify_1",
	})
	require.Error(t, err)

	// Чужая подписка не приклеилась
	reloaded, err := repositories.NewUserRepository().FindByID(db, intruder.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Subscription.SubscriptionID)
}

func TestSubscriptionService_CancelWithoutCustomer(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	_, err := svc.Cancel(context.Background(), db, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoBillingCustomer)
}

func TestSubscriptionService_CancelActiveSubscription(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", models.PlanProfessional)

	userRepo := repositories.NewUserRepository()
	user.Subscription.CustomerID = "cus_test_1"
	user.Subscription.SubscriptionID = "sub_test_1"
	require.NoError(t, userRepo.Update(db, user))

	sub, err := svc.Cancel(context.Background(), db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
}

func TestSubscriptionService_WebhookCheckoutCompleted(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	event := webhookEvent(t, billing.EventCheckoutCompleted, billing.CheckoutSessionObject{
		ID:           "cs_test_1",
		Customer:     "cus_test_1",
		Subscription: "sub_test_1",
		Metadata:     map[string]string{"user_id": user.ID},
	})
	require.NoError(t, svc.HandleWebhookEvent(db, event))

	reloaded, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_test_1", reloaded.Subscription.CustomerID)
	assert.Equal(t, "sub_test_1", reloaded.Subscription.SubscriptionID)
	assert.Equal(t, models.SubscriptionStatusActive, reloaded.Subscription.Status)

	// Пользователь получил уведомление об активации
	notifications, err := repositories.NewNotificationRepository().FindForUser(db, user.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "billing", notifications[0].Type)
}

func TestSubscriptionService_WebhookSubscriptionUpdated(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", "")

	userRepo := repositories.NewUserRepository()
	user.Subscription.CustomerID = "cus_test_1"
	require.NoError(t, userRepo.Update(db, user))

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	sub := map[string]interface{}{
		"id":                 "sub_test_1",
		"customer":           "cus_test_1",
		"status":             "active",
		"current_period_end": periodEnd,
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]string{"id": "price_pro"}},
			},
		},
	}

	require.NoError(t, svc.HandleWebhookEvent(db, webhookEvent(t, billing.EventSubscriptionUpdated, sub)))

	reloaded, err := userRepo.FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanProfessional, reloaded.Subscription.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, reloaded.Subscription.Status)
	require.NotNil(t, reloaded.Subscription.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, reloaded.Subscription.CurrentPeriodEnd.Unix())
}

func TestSubscriptionService_WebhookSubscriptionDeleted(t *testing.T) {
	svc, db := newTestSubscriptionService(t)
	user := seedUser(t, db, "anna@example.com", models.PlanProfessional)

	userRepo := repositories.NewUserRepository()
	user.Subscription.CustomerID = "cus_test_1"
	user.Subscription.SubscriptionID = "sub_test_1"
	require.NoError(t, userRepo.Update(db, user))

	event := webhookEvent(t, billing.EventSubscriptionDeleted, billing.SubscriptionObject{
		ID:       "sub_test_1",
		Customer: "cus_test_1",
	})
	require.NoError(t, svc.HandleWebhookEvent(db, event))

	reloaded, err := userRepo.FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Subscription.SubscriptionID)
	assert.Empty(t, reloaded.Subscription.Plan)
	assert.Equal(t, models.SubscriptionStatusExpired, reloaded.Subscription.Status)
}

func TestSubscriptionService_WebhookUnknownEventAcknowledged(t *testing.T) {
	svc, db := newTestSubscriptionService(t)

	event := webhookEvent(t, "customer.updated", map[string]string{"id": "cus_test_1"})
	assert.NoError(t, svc.HandleWebhookEvent(db, event))
}
