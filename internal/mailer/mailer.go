// Package mailer sends transactional email through an SMTP relay.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("mail: recipient is required")

// Message is a single outgoing email. HTML defaults to Text when empty.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Config describes the SMTP relay.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers messages with gomail.
type Mailer struct {
	from   string
	dialer sender
}

// New returns a Mailer for the relay described by cfg.
func New(cfg Config) *Mailer {
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

// Send delivers msg. The SMTP exchange is not interruptible, so ctx is only
// checked before dialing.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}

	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	log.Printf("mailer: sent %q to %s", msg.Subject, msg.To)
	return nil
}

func (m *Mailer) build(msg Message) *gomail.Message {
	html := msg.HTML
	if html == "" {
		html = msg.Text
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	gm.AddAlternative("text/html", html)
	return gm
}
