package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет произвольное email сообщение
	Send(msg *Message) error

	// SendVerificationCode отправляет письмо с кодом подтверждения
	SendVerificationCode(to, name, code, reason string) error

	// SendTemplate отправляет email по шаблону
	SendTemplate(to []string, subject, templateName string, data TemplateData) error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
