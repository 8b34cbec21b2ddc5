// Package mailer delivers recovery codes by email.
package mailer

import (
	"context"
	"net"
	"net/smtp"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a single SMTP relay. Auth is used only when
// a username is configured, so a local dev relay works without credentials.
type SMTPMailer struct {
	addr     string
	user     string
	password string
	from     string
}

func NewSMTPMailer(addr, user, password, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, user: user, password: password, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.user != "" {
		host, _, err := net.SplitHostPort(m.addr)
		if err != nil {
			return err
		}
		auth = smtp.PlainAuth("", m.user, m.password, host)
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")

	return smtp.SendMail(m.addr, auth, m.from, []string{to}, msg)
}
