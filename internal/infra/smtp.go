package infra

import (
	"fmt"
	"net/smtp"

	"github.com/FMABr/ducks-demo/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends sale receipts through the configured SMTP relay.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *Breaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewBreaker(BreakerConfig{Name: "smtp"}),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// SendReceipt mails the receipt PDF at pdfPath to the given mailbox.
func (m *Mailer) SendReceipt(to, subject, body, pdfPath string) error {
	msg := email.NewEmail()
	msg.From = m.user
	msg.To = []string{to}
	msg.Subject = subject
	msg.Text = []byte(body)

	if pdfPath != "" {
		if _, err := msg.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach receipt: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Do(func() error {
		return msg.Send(m.addr, auth)
	})
}

// Available reports whether the relay's breaker currently lets mail through.
func (m *Mailer) Available() bool { return m.breaker.State() != BreakerOpen }
