// Package mailer delivers rendered template messages.
package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"

	"voice-gateway/internal/config"
	"voice-gateway/internal/models"
	"voice-gateway/pkg/logger"

	mail "github.com/go-mail/mail"
	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("customer email not found")

type Sender interface {
	Send(msg models.RenderedMessage) error
}

type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
	log  *zap.Logger
	// dial is swapped in tests
	dial func(d *mail.Dialer, m *mail.Message) error
}

func NewSMTPSender(cfg *config.Config, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		From: cfg.SMTPFrom,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		log:  logger.OrNop(log),
		dial: func(d *mail.Dialer, m *mail.Message) error { return d.DialAndSend(m) },
	}
}

// BuildMessage turns a rendered message into a plain text email. The
// message's sender, when present, becomes Reply-To.
func (s *SMTPSender) BuildMessage(msg models.RenderedMessage) (*mail.Message, error) {
	if msg.To == "" {
		return nil, ErrNoRecipient
	}
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	if msg.SenderEmail != "" {
		m.SetHeader("Reply-To", msg.SenderEmail)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m, nil
}

func (s *SMTPSender) Send(msg models.RenderedMessage) error {
	m, err := s.BuildMessage(msg)
	if err != nil {
		return err
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}

	s.log.Info("Sending email",
		zap.String("template_id", msg.TemplateID),
		zap.String("to", msg.To),
		zap.String("host", s.Host),
	)
	if err := s.dial(d, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender only logs; used when SMTP is not configured
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: logger.OrNop(log)}
}

func (s *LogSender) Send(msg models.RenderedMessage) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.log.Info("SMTP not configured, email not delivered",
		zap.String("template_id", msg.TemplateID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
