package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/recuerdame/webapp/internal/pkg/env"
)

// Mailer sends transactional mail over plain SMTP. Rendering stays minimal:
// activation mail is the only template the product needs right now.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailerFromEnv reads SMTP_HOST/PORT/USER/PASSWORD and MAIL_FROM.
func NewMailerFromEnv() *Mailer {
	return &Mailer{
		host:     env.GetEnv("SMTP_HOST", ""),
		port:     env.GetEnv("SMTP_PORT", "587"),
		username: env.GetEnv("SMTP_USER", ""),
		password: env.GetEnv("SMTP_PASSWORD", ""),
		from:     env.GetEnv("MAIL_FROM", "no-reply@recuerdame.app"),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return strings.TrimSpace(m.host) != ""
}

// SendActivationMail delivers the account activation link.
func (m *Mailer) SendActivationMail(to, name, token string) error {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s", base, token)

	subject := "Activá tu cuenta de Recuérdame"
	body := fmt.Sprintf("Hola %s,\r\n\r\nActivá tu cuenta entrando a:\r\n%s\r\n\r\nSi no creaste esta cuenta, ignorá este mail.\r\n", name, link)

	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
