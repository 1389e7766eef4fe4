package service

import (
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
)

// ErrEmailDisabled is returned when SMTP delivery is turned off or not
// configured.
var ErrEmailDisabled = errors.New("email delivery disabled")

// EmailService sends plain-text notification mail over SMTP.
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates an email service.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendTicketReplyNotification tells a user their ticket got an answer.
func (s *EmailService) SendTicketReplyNotification(toEmail, subject string) error {
	mailSubject := fmt.Sprintf("Re: %s", subject)
	body := fmt.Sprintf(
		"Your support ticket %q has a new reply.\n\nLog in to your account to read and respond.",
		subject)
	return s.SendText(toEmail, mailSubject, body)
}

// SendText delivers a plain-text message.
func (s *EmailService) SendText(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailDisabled
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return err
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.cfg.FromName), s.cfg.From)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseTLS {
		return s.sendWithStartTLS(addr, auth, toEmail, []byte(msg.String()))
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{toEmail}, []byte(msg.String()))
}

// sendWithStartTLS speaks SMTP with an explicit STARTTLS upgrade.
func (s *EmailService) sendWithStartTLS(addr string, auth smtp.Auth, toEmail string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
