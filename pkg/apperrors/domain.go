package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для общих ошибок бизнес-логики и домена.
*/

// =========================================================================
// Фабричные ФУНКЦИИ
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrDeliveryFailed - доставка кода/письма провалилась.
// Наружу уходит общий текст, причина остается в Err для логов.
func ErrDeliveryFailed(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "delivery",
		"Failed to send verification email. Please try again later.",
		http.StatusInternalServerError)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ (Для частых, статичных ошибок)
// =========================================================================

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid credentials",
	http.StatusUnauthorized,
)

var ErrUserBanned = New(
	CodeUserBanned,
	"auth",
	"Account has been banned",
	http.StatusForbidden,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid token",
	http.StatusUnauthorized,
)

// ErrInvalidCode - код верификации неверный, истекший или уже использованный.
// Один текст на все три случая, чтобы не подсказывать перебором.
var ErrInvalidCode = New(
	CodeInvalidCode,
	"auth",
	"Invalid or expired verification code",
	http.StatusUnauthorized,
)

var ErrWeakPassword = New(
	CodeValidationFailed,
	"auth",
	"Password must be at least 8 characters long",
	http.StatusBadRequest,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Access denied. Admin privileges required.",
	http.StatusForbidden,
)

// --- Users ---

var ErrEmailAlreadyExists = New(
	CodeConflict,
	"users",
	"Email already in use",
	http.StatusBadRequest, // исторически 400, не 409 (так отвечал старый API)
)

var ErrUserNotFound = New(
	CodeNotFound,
	"users",
	"User not found",
	http.StatusNotFound,
)

// ErrVersionConflict - одновременная модификация одной и той же записи.
var ErrVersionConflict = New(
	CodeConflict,
	"users",
	"The record was modified concurrently, please retry",
	http.StatusConflict,
)

// ErrNoPendingEmailChange - подтверждение без начатой смены email.
var ErrNoPendingEmailChange = New(
	CodeInvalidOperation,
	"users",
	"No pending email change for this account",
	http.StatusBadRequest,
)

// --- Billing ---

var ErrInvalidPlan = New(
	CodeValidationFailed,
	"billing",
	"Invalid plan selected",
	http.StatusBadRequest,
)

var ErrNoBillingCustomer = New(
	CodeInvalidOperation,
	"billing",
	"No billing customer found for this user",
	http.StatusBadRequest,
)

var ErrNoActiveSubscription = New(
	CodeInvalidOperation,
	"billing",
	"No active subscription found",
	http.StatusBadRequest,
)

// --- Uploads & Files ---

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// --- Rate limiting ---

var ErrTooManyRequests = New(
	CodeLimitExceeded,
	"ratelimit",
	"Too many requests, please try again later",
	http.StatusTooManyRequests,
)
