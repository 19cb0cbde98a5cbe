package dto

// UpdateProfileRequest - правка профиля. Пустые поля не трогаются
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ChangeEmailRequest - прямая смена email с доказательством пароля
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// InitiateEmailChangeRequest - первый шаг верифицированной смены email.
// Код уходит на НОВЫЙ адрес: владение новым ящиком и авторизует смену.
type InitiateEmailChangeRequest struct {
	NewEmail string `json:"newEmail" binding:"required,email"`
}

// ConfirmEmailChangeRequest - второй шаг верифицированной смены email
type ConfirmEmailChangeRequest struct {
	NewEmail string `json:"newEmail" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
}

// ToggleTwoFactorRequest - включение/выключение второго фактора
type ToggleTwoFactorRequest struct {
	Enabled  bool   `json:"enabled"`
	Password string `json:"password" binding:"required"`
}
