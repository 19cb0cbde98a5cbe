package services

import (
	"context"
	"encoding/json"
	"time"

	"clientdesk_backend/internal/billing"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SubscriptionService interface {
	Checkout(ctx context.Context, db *gorm.DB, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	VerifySession(ctx context.Context, db *gorm.DB, userID string, req *dto.VerifySessionRequest) (*dto.SubscriptionDTO, error)
	GetMySubscription(db *gorm.DB, userID string) (*dto.SubscriptionDTO, error)
	Cancel(ctx context.Context, db *gorm.DB, userID string) (*dto.SubscriptionDTO, error)
	HandleWebhookEvent(db *gorm.DB, event *billing.Event) error
}

type SubscriptionServiceImpl struct {
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	gateway          *billing.Client
	priceIDs         map[string]string // план -> price id
	frontendURL      string
}

func NewSubscriptionService(
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	gateway *billing.Client,
	priceIDs map[string]string,
	frontendURL string,
) SubscriptionService {
	return &SubscriptionServiceImpl{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		gateway:          gateway,
		priceIDs:         priceIDs,
		frontendURL:      frontendURL,
	}
}

// Checkout создает hosted-сессию оплаты выбранного плана.
// Покупатель в шлюзе заводится лениво при первой оплате.
func (s *SubscriptionServiceImpl) Checkout(ctx context.Context, db *gorm.DB, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if !models.ValidPlan(req.Plan) {
		return nil, apperrors.ErrInvalidPlan
	}
	priceID, ok := s.priceIDs[req.Plan]
	if !ok {
		return nil, apperrors.ErrInvalidPlan
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if user.Subscription.CustomerID == "" {
		customer, err := s.gateway.CreateCustomer(ctx, user.Email, user.FullName())
		if err != nil {
			return nil, apperrors.ExternalServiceError(err, "Failed to create billing customer")
		}
		user.Subscription.CustomerID = customer.ID
		if err := s.userRepo.Update(db, user); err != nil {
			return nil, mapUserUpdateError(err)
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID: user.Subscription.CustomerID,
		PriceID:    priceID,
		SuccessURL: s.frontendURL + "/billing/success",
		CancelURL:  s.frontendURL + "/billing/cancel",
		UserID:     user.ID,
	})
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to create checkout session")
	}

	return &dto.CheckoutResponse{CheckoutURL: session.URL}, nil
}

// VerifySession сверяет завершенную сессию оплаты со шлюзом и сразу
// проецирует подписку на пользователя. Вебхук останется источником
// истины для последующих изменений, но успех оплаты виден без него.
func (s *SubscriptionServiceImpl) VerifySession(ctx context.Context, db *gorm.DB, userID string, req *dto.VerifySessionRequest) (*dto.SubscriptionDTO, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	session, err := s.gateway.GetCheckoutSession(ctx, req.SessionID)
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to retrieve checkout session")
	}
	if session.Metadata["user_id"] != user.ID &&
		(session.Customer == "" || session.Customer != user.Subscription.CustomerID) {
		return nil, apperrors.NewBadRequestError("Checkout session does not belong to this account")
	}
	if session.Subscription == "" {
		return nil, apperrors.NewBadRequestError("Checkout session has no subscription attached")
	}

	sub, err := s.gateway.GetSubscription(ctx, session.Subscription)
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to retrieve subscription")
	}

	user.Subscription.CustomerID = session.Customer
	user.Subscription.SubscriptionID = sub.ID
	if len(sub.Items.Data) > 0 {
		user.Subscription.Plan = s.planForPrice(sub.Items.Data[0].Price.ID)
	}
	user.Subscription.Status = models.SubscriptionStatusActive
	if sub.CancelAtPeriodEnd {
		user.Subscription.Status = models.SubscriptionStatusCanceled
	}
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		user.Subscription.CurrentPeriodEnd = &periodEnd
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewSubscriptionDTO(&user.Subscription), nil
}

func (s *SubscriptionServiceImpl) GetMySubscription(db *gorm.DB, userID string) (*dto.SubscriptionDTO, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if user.Subscription.Plan == "" {
		return nil, apperrors.ErrNoActiveSubscription
	}
	return dto.NewSubscriptionDTO(&user.Subscription), nil
}

// Cancel помечает подписку к отмене в конце оплаченного периода
func (s *SubscriptionServiceImpl) Cancel(ctx context.Context, db *gorm.DB, userID string) (*dto.SubscriptionDTO, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if user.Subscription.CustomerID == "" {
		return nil, apperrors.ErrNoBillingCustomer
	}
	if user.Subscription.SubscriptionID == "" || user.Subscription.Status != models.SubscriptionStatusActive {
		return nil, apperrors.ErrNoActiveSubscription
	}

	if _, err := s.gateway.CancelAtPeriodEnd(ctx, user.Subscription.SubscriptionID); err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to cancel subscription")
	}

	user.Subscription.Status = models.SubscriptionStatusCanceled
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewSubscriptionDTO(&user.Subscription), nil
}

// HandleWebhookEvent применяет событие шлюза к локальной записи.
// Неизвестные типы событий подтверждаются без обработки.
func (s *SubscriptionServiceImpl) HandleWebhookEvent(db *gorm.DB, event *billing.Event) error {
	switch event.Type {
	case billing.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(db, event)
	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return s.applySubscriptionChange(db, event)
	case billing.EventInvoicePaymentFail:
		return s.applyPaymentFailed(db, event)
	default:
		logger.Debug("ignoring billing webhook event", "type", event.Type)
		return nil
	}
}

func (s *SubscriptionServiceImpl) applyCheckoutCompleted(db *gorm.DB, event *billing.Event) error {
	var session billing.CheckoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return apperrors.NewBadRequestError("Malformed checkout session object")
	}

	user, err := s.findUserForWebhook(db, session.Customer, session.Metadata["user_id"])
	if err != nil {
		return err
	}

	user.Subscription.CustomerID = session.Customer
	user.Subscription.SubscriptionID = session.Subscription
	user.Subscription.Status = models.SubscriptionStatusActive
	if err := s.userRepo.Update(db, user); err != nil {
		return mapUserUpdateError(err)
	}

	s.notify(db, user.ID, "billing", "Your subscription is now active")
	return nil
}

func (s *SubscriptionServiceImpl) applySubscriptionChange(db *gorm.DB, event *billing.Event) error {
	var sub billing.SubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return apperrors.NewBadRequestError("Malformed subscription object")
	}

	user, err := s.findUserForWebhook(db, sub.Customer, "")
	if err != nil {
		return err
	}

	if event.Type == billing.EventSubscriptionDeleted {
		user.Subscription.SubscriptionID = ""
		user.Subscription.Plan = ""
		user.Subscription.Status = models.SubscriptionStatusExpired
		user.Subscription.CurrentPeriodEnd = nil
	} else {
		user.Subscription.SubscriptionID = sub.ID
		if len(sub.Items.Data) > 0 {
			user.Subscription.Plan = s.planForPrice(sub.Items.Data[0].Price.ID)
		}
		user.Subscription.Status = models.SubscriptionStatusActive
		if sub.CancelAtPeriodEnd {
			user.Subscription.Status = models.SubscriptionStatusCanceled
		}
		if sub.CurrentPeriodEnd > 0 {
			periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
			user.Subscription.CurrentPeriodEnd = &periodEnd
		}
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return mapUserUpdateError(err)
	}
	return nil
}

func (s *SubscriptionServiceImpl) applyPaymentFailed(db *gorm.DB, event *billing.Event) error {
	var invoice struct {
		Customer string `json:"customer"`
	}
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return apperrors.NewBadRequestError("Malformed invoice object")
	}

	user, err := s.findUserForWebhook(db, invoice.Customer, "")
	if err != nil {
		return err
	}

	s.notify(db, user.ID, "billing", "We could not charge your subscription payment. Please update your payment method.")
	return nil
}

// findUserForWebhook ищет владельца события по customer id, с фолбэком
// на user_id из metadata (первая оплата, когда customer еще не привязан)
func (s *SubscriptionServiceImpl) findUserForWebhook(db *gorm.DB, customerID, metadataUserID string) (*models.User, error) {
	if customerID != "" {
		user, err := s.userRepo.FindByBillingCustomer(db, customerID)
		if err == nil {
			return user, nil
		}
		if !apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InternalError(err)
		}
	}

	if metadataUserID != "" {
		user, err := s.userRepo.FindByID(db, metadataUserID)
		if err == nil {
			return user, nil
		}
		if !apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InternalError(err)
		}
	}

	return nil, apperrors.NewNotFoundError("No user for billing event")
}

func (s *SubscriptionServiceImpl) planForPrice(priceID string) models.SubscriptionPlan {
	for plan, id := range s.priceIDs {
		if id == priceID {
			return models.SubscriptionPlan(plan)
		}
	}
	return ""
}

func (s *SubscriptionServiceImpl) notify(db *gorm.DB, userID, notifType, message string) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Message: message,
	}
	if err := s.notificationRepo.Create(db, notification); err != nil {
		logger.WithError(err).Warn("failed to create billing notification", "user_id", userID)
	}
}
