package services

import (
	"clientdesk_backend/internal/email"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	DocumentService     DocumentService
	VideoService        VideoService
	MeetingService      MeetingService
	SubscriptionService SubscriptionService
	NotificationService NotificationService
	AdminService        AdminService
	EmailService        email.Provider
}
