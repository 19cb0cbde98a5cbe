package models

type UserRole string
type UserStatus string
type ChallengePurpose string
type SubscriptionPlan string
type SubscriptionStatus string
type MeetingStatus string
type VideoStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"

	// Назначение кода верификации. Каждому назначению - свой слот,
	// выдача кода для одного назначения не затирает код другого.
	PurposeRegistration  ChallengePurpose = "registration"
	PurposeLogin         ChallengePurpose = "login"
	PurposePasswordReset ChallengePurpose = "password_reset"
	PurposeEmailChange   ChallengePurpose = "email_change"

	PlanBasic        SubscriptionPlan = "Basic"
	PlanProfessional SubscriptionPlan = "Professional"
	PlanEnterprise   SubscriptionPlan = "Enterprise"

	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"

	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"

	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// ValidPlan проверяет, что имя плана известно биллингу
func ValidPlan(plan string) bool {
	switch SubscriptionPlan(plan) {
	case PlanBasic, PlanProfessional, PlanEnterprise:
		return true
	default:
		return false
	}
}
