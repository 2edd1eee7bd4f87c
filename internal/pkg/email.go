package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends notification copies over SMTP.
type Mailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{cfg: cfg, dialer: d}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	return m.dialer.DialAndSend(NewMessage(m.cfg.From, to, subject, htmlBody))
}

func NewMessage(from, to, subject, htmlBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return msg
}

// NotificationHTML renders a notification message for mail, escaping user text.
func NotificationHTML(username, message string) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>%s</p><p>Open the app to see more.</p>`,
		html.EscapeString(username), html.EscapeString(message))
}
