package email

import (
	"context"
	"fmt"
	"strings"
)

// Sender composes and sends the service's transactional messages. It
// satisfies the service layer's EmailSender port.
type Sender struct {
	Settings Settings
}

func NewSender(settings Settings) *Sender { return &Sender{Settings: settings} }

// SendWelcomeEmail delivers the onboarding mail carrying the temporary
// password and the login URL.
func (s *Sender) SendWelcomeEmail(ctx context.Context, to, name, tempPassword, loginURL string) error {
	body := strings.Join([]string{
		fmt.Sprintf("Hello %s,", name),
		"",
		"An account has been created for you.",
		"",
		"Temporary password: " + tempPassword,
		"",
		"Sign in here and choose a new password:",
		loginURL,
		"",
		"You will be asked to change this password on first login.",
	}, "\n")
	return s.send(ctx, Message{ToEmail: to, Subject: "Welcome - your account is ready", TextBody: body})
}

// SendPasswordResetEmail delivers the reset link built from the raw
// token and the configured reset URL base.
func (s *Sender) SendPasswordResetEmail(ctx context.Context, to, name, token, resetURL string) error {
	link := resetURL
	if strings.Contains(resetURL, "?") {
		link += "&token=" + token
	} else {
		link += "?token=" + token
	}
	body := strings.Join([]string{
		fmt.Sprintf("Hello %s,", name),
		"",
		"You requested a password reset.",
		"",
		"Reset your password using this link:",
		link,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\n")
	return s.send(ctx, Message{ToEmail: to, Subject: "Reset your password", TextBody: body})
}

// SendNotificationEmail delivers a plain notification.
func (s *Sender) SendNotificationEmail(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, Message{ToEmail: to, Subject: subject, TextBody: body})
}

// send honors context cancellation before dialing; net/smtp itself is
// not context-aware.
func (s *Sender) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Send(s.Settings, msg)
}
