// Package mailer delivers the transactional emails the auth flows trigger.
// Delivery is a side effect of an already-committed state transition, so
// callers log failures and move on.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

// Mailer sends the four transactional messages of the auth flows.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
	SendPasswordResetSuccessEmail(ctx context.Context, to string) error
}

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML email over authenticated SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, code string) error {
	return m.send(ctx, to, "Verify your email", verificationTemplate, map[string]string{"Code": code})
}

func (m *SMTPMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome aboard", welcomeTemplate, map[string]string{"Name": name})
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	return m.send(ctx, to, "Reset your password", resetRequestTemplate, map[string]string{"ResetURL": resetURL})
}

func (m *SMTPMailer) SendPasswordResetSuccessEmail(ctx context.Context, to string) error {
	return m.send(ctx, to, "Password reset successful", resetSuccessTemplate, nil)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.HTML = body.Bytes()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogMailer logs instead of sending, for development without an SMTP server.
type LogMailer struct {
	logger *zap.Logger
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.L()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, code string) error {
	m.logger.Info("verification email", zap.String("to", to), zap.String("code", code))
	return nil
}

func (m *LogMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	m.logger.Info("welcome email", zap.String("to", to), zap.String("name", name))
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	m.logger.Info("password reset email", zap.String("to", to), zap.String("reset_url", resetURL))
	return nil
}

func (m *LogMailer) SendPasswordResetSuccessEmail(ctx context.Context, to string) error {
	m.logger.Info("password reset success email", zap.String("to", to))
	return nil
}
