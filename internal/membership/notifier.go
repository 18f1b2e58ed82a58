package membership

import (
	"context"
	"fmt"
	"strings"

	apperrors "mergington-activities/internal/common/errors"
)

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// Notifier emails a confirmation to the participant after a signup.
// Unregister events and empty addresses are ignored.
type Notifier struct {
	sender EmailSender
}

func NewNotifier(sender EmailSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) Name() string { return "ses" }

func (n *Notifier) Handle(ctx context.Context, evt Event) error {
	if evt.Type != EventSignup || strings.TrimSpace(evt.Email) == "" {
		return nil
	}

	subject := fmt.Sprintf("You're signed up for %s", evt.Activity)
	var body strings.Builder
	fmt.Fprintf(&body, "Hi,\n\nYou have been signed up for %s at Mergington High School.\n", evt.Activity)
	if evt.Schedule != "" {
		fmt.Fprintf(&body, "Schedule: %s\n", evt.Schedule)
	}
	body.WriteString("\nIf this was a mistake, you can unregister from the activities page.\n")

	if _, err := n.sender.SendText(ctx, evt.Email, subject, body.String()); err != nil {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}
