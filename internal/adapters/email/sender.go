// Package email delivers outbound notifications such as the at-risk digest.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("email: at least one recipient is required")

// Message is one outbound email.
type Message struct {
	To      []string
	From    string // empty uses the sender's default, e.g. "Catequesis <avisos@parroquia.org>"
	Subject string
	HTML    string
	Text    string // plain-text alternative, optional
	ReplyTo string
}

// Validate checks the message can be handed to a provider.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if m.Subject == "" {
		return errors.New("email: subject is required")
	}
	return nil
}

// Receipt is a provider acknowledgement.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers messages through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
	SendBatch(ctx context.Context, msgs []Message) ([]Receipt, error)
}
