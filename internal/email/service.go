package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

// sender delivers composed messages. *gomail.Dialer satisfies it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	sender   sender
	from     string
	fromName string
	baseURL  string
}

// NewService creates an SMTP mailer from the MAIL_* settings.
// Port 465 uses implicit TLS; other ports negotiate STARTTLS.
func NewService(cfg config.EmailConfig, baseURL string) *Service {
	dialer := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.Port == 465

	return newService(dialer, cfg.From, cfg.FromName, baseURL)
}

func newService(s sender, from, fromName, baseURL string) *Service {
	return &Service{
		sender:   s,
		from:     from,
		fromName: fromName,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// VerificationLink returns the confirmation URL embedded in verification emails
func (s *Service) VerificationLink(token string) string {
	return fmt.Sprintf("%s/api/auth/confirmed_email/%s", s.baseURL, token)
}

// SendVerificationEmail sends an email verification link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, username, token string) error {
	logger := logging.FromContext(ctx)

	body, err := render(verificationTemplate, map[string]string{
		"Username":         username,
		"VerificationLink": s.VerificationLink(token),
	})
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(ctx, toEmail, "Confirm your email", body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends the single-use reset token to the user
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, username, token string) error {
	logger := logging.FromContext(ctx)

	body, err := render(passwordResetTemplate, map[string]string{
		"Username":   username,
		"ResetToken": token,
		"ConfirmURL": s.baseURL + "/api/password-reset/confirm",
	})
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(ctx, toEmail, "Reset your password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	// gomail has no context support; run the dial so a cancelled context returns early
	done := make(chan error, 1)
	go func() { done <- s.sender.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
