package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers mail through a plain SMTP relay using AUTH PLAIN when
// credentials are configured.
type SMTPSender struct {
	Addr     string
	From     string
	Username string
	Password string
}

// Send implements common.EmailSender.
func (s SMTPSender) Send(to, subject, html string) error {
	if strings.TrimSpace(s.Addr) == "" {
		return fmt.Errorf("notify: smtp address not configured")
	}
	host := s.Addr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n")
	return smtp.SendMail(s.Addr, auth, s.From, []string{to}, []byte(msg))
}
