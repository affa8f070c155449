package post

import (
	"context"
	"fmt"
	"html"

	"github.com/taskgram/service/internal/mailer"
	"github.com/taskgram/service/internal/user"
)

// MailSender delivers a single email.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// UserLookup resolves an owner's profile.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// EmailNotifier emails owners when their post goes live.
type EmailNotifier struct {
	mail  MailSender
	users UserLookup
}

// NewEmailNotifier returns a Notifier backed by mail.
func NewEmailNotifier(mail MailSender, users UserLookup) *EmailNotifier {
	return &EmailNotifier{mail: mail, users: users}
}

// PostPublished sends the "your post is live" email.
func (n *EmailNotifier) PostPublished(ctx context.Context, p *Post) error {
	u, err := n.users.GetByID(ctx, p.User.ID)
	if err != nil {
		return fmt.Errorf("look up owner: %w", err)
	}

	text := fmt.Sprintf("Hi %s,\n\nYour post %q is now live: %s\n", u.Name, p.Caption, p.ImageURL)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Your post <strong>%s</strong> is now live.</p><p><img src="%s" alt="%s" width="320"></p>`,
		html.EscapeString(u.Name), html.EscapeString(p.Caption), html.EscapeString(p.ImageURL), html.EscapeString(p.Caption))

	return n.mail.Send(ctx, mailer.Message{
		To:      u.Email,
		Subject: "Your post is live",
		Text:    text,
		HTML:    body,
	})
}
