package app

import (
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/logger"
)

// LogEmailProvider пишет письма в лог вместо реальной отправки.
// Используется в окружениях без настроенного SMTP.
type LogEmailProvider struct{}

func (p *LogEmailProvider) Send(msg *email.Message) error {
	logger.Info("Email (dev mode, not delivered)",
		"to", msg.To,
		"cc", msg.Cc,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}

func (p *LogEmailProvider) SendVerificationCode(to, name, code, reason string) error {
	logger.Info("Verification code (dev mode, not delivered)",
		"to", to,
		"name", name,
		"code", code,
		"reason", reason,
	)
	return nil
}

func (p *LogEmailProvider) SendTemplate(to []string, subject, templateName string, data email.TemplateData) error {
	logger.Info("Template email (dev mode, not delivered)",
		"to", to,
		"subject", subject,
		"template", templateName,
	)
	return nil
}
