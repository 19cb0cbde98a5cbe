package email

import (
	"fmt"
	"io"

	"clientdesk_backend/internal/logger"

	"gopkg.in/gomail.v2"
)

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromEmail   string
	FromName    string
	UseTLS      bool
	CodeTTLMins int
}

// GomailProvider реализует Provider поверх SMTP через gomail
type GomailProvider struct {
	config   *SMTPConfig
	dialer   *gomail.Dialer
	renderer TemplateRenderer
}

// NewGomailProvider создает SMTP провайдер
func NewGomailProvider(config *SMTPConfig, renderer TemplateRenderer) (*GomailProvider, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid SMTP port: %d", config.Port)
	}

	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	dialer.SSL = config.UseTLS && config.Port == 465

	return &GomailProvider{
		config:   config,
		dialer:   dialer,
		renderer: renderer,
	}, nil
}

// Send отправляет email сообщение
func (p *GomailProvider) Send(msg *Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)

	if msg.Body != "" {
		m.SetBody("text/plain", msg.Body)
		if msg.HTMLBody != "" {
			m.AddAlternative("text/html", msg.HTMLBody)
		}
	} else {
		m.SetBody("text/html", msg.HTMLBody)
	}

	for _, att := range msg.Attachments {
		content := att.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Name, settings...)
	}

	if err := p.dialer.DialAndSend(m); err != nil {
		logger.WithError(err).Error("failed to send email",
			"to", msg.To,
			"subject", msg.Subject,
		)
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SendVerificationCode отправляет письмо с кодом подтверждения
func (p *GomailProvider) SendVerificationCode(to, name, code, reason string) error {
	html, err := p.renderer.Render("verification_code", TemplateData{
		"Name":       name,
		"Code":       code,
		"Reason":     reason,
		"TTLMinutes": p.config.CodeTTLMins,
	})
	if err != nil {
		return err
	}

	return p.Send(&Message{
		To:       []string{to},
		Subject:  "Your verification code",
		HTMLBody: html,
	})
}

// SendTemplate отправляет email по шаблону
func (p *GomailProvider) SendTemplate(to []string, subject, templateName string, data TemplateData) error {
	html, err := p.renderer.Render(templateName, data)
	if err != nil {
		return err
	}

	return p.Send(&Message{
		To:       to,
		Subject:  subject,
		HTMLBody: html,
	})
}
