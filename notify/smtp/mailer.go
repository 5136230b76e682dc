// Package smtp sends HTML email through a plain SMTP relay.
package smtp

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

// Config holds relay settings.
type Config struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer implements notify.EmailSender.
type Mailer struct {
	cfg  Config
	send sendFunc
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendEmail sends one message addressed to all recipients.
func (m *Mailer) SendEmail(ctx context.Context, addresses []string, subject, bodyHTML string) error {
	if len(addresses) == 0 {
		return fmt.Errorf("smtp: no recipients")
	}
	for _, a := range addresses {
		if strings.ContainsAny(a, "\r\n") {
			return fmt.Errorf("smtp: invalid recipient")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(addresses, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(bodyHTML)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return m.send(net.JoinHostPort(m.cfg.Host, m.cfg.Port), auth, m.cfg.From, addresses, []byte(b.String()))
}
