package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	msgs  []*gomail.Message
	err   error
	delay time.Duration
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m...)
	return nil
}

func TestService_SendVerificationEmail(t *testing.T) {
	sender := &captureSender{}
	svc := newService(sender, "noreply@example.test", "Contacts API", "https://api.example.test/")

	err := svc.SendVerificationEmail(context.Background(), "u1@example.test", "u1", "tok123")
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"u1@example.test"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Confirm your email"}, msg.GetHeader("Subject"))
	assert.Equal(t, "https://api.example.test/api/auth/confirmed_email/tok123", svc.VerificationLink("tok123"))
}

func TestService_SendPasswordResetEmail(t *testing.T) {
	sender := &captureSender{}
	svc := newService(sender, "noreply@example.test", "Contacts API", "https://api.example.test")

	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "u1@example.test", "u1", "reset-tok"))
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{"Reset your password"}, sender.msgs[0].GetHeader("Subject"))
}

func TestService_SendErrors(t *testing.T) {
	sender := &captureSender{err: errors.New("535 auth failed")}
	svc := newService(sender, "noreply@example.test", "", "http://localhost")

	err := svc.SendVerificationEmail(context.Background(), "u1@example.test", "u1", "tok")
	assert.ErrorContains(t, err, "535 auth failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.SendPasswordResetEmail(ctx, "u1@example.test", "u1", "tok")
	assert.ErrorIs(t, err, context.Canceled)

	slow := newService(&captureSender{delay: time.Second}, "noreply@example.test", "", "http://localhost")
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = slow.SendVerificationEmail(ctx, "u1@example.test", "u1", "tok")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTemplates(t *testing.T) {
	body, err := render(verificationTemplate, map[string]string{
		"Username":         "<u1>",
		"VerificationLink": "https://api.example.test/api/auth/confirmed_email/tok",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "https://api.example.test/api/auth/confirmed_email/tok")
	assert.Contains(t, body, "&lt;u1&gt;")

	body, err = render(passwordResetTemplate, map[string]string{
		"Username":   "u1",
		"ResetToken": "6f1c1d9e-0d55-4b55-9d0c-0a8f2b8e0b11",
		"ConfirmURL": "https://api.example.test/api/password-reset/confirm",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "6f1c1d9e-0d55-4b55-9d0c-0a8f2b8e0b11")
	assert.Contains(t, body, "expires in 1 hour")
}
