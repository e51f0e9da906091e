package notification

import (
	"fmt"

	"onay-backend/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer: bildirim gönderimi için dar arayüz; testlerde sahte kayıtçı kullanılır
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	cfg *config.Config
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST tanımlı değil")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPassword)
	return d.DialAndSend(msg)
}
