package mailer

import (
	"context"
	"errors"
)

// ErrSendFailed wraps transport-level delivery failures so callers can
// report a generic send error without leaking SMTP details.
var ErrSendFailed = errors.New("message send failed")

// Attachment is a file carried with an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound transactional email.
type Message struct {
	From        string
	To          string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer sends transactional email. Implementations must honor the
// context deadline; none of the callers retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
