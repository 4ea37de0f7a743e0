// Package notify carries approval events out to stakeholders over SMTP.
// Delivery is best-effort: callers log failures and never let them roll
// back or block a committed state transition.
package notify

import "context"

// Message is one outgoing email. To may be empty, in which case the
// dispatcher falls back to the configured operator mailbox, and silently
// skips the send when that is absent too.
type Message struct {
	To         []string
	CC         []string
	Subject    string
	HTML       string
	Attachment []byte
	AttachName string
}

// Dispatcher sends notification messages.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Addresses extracts the non-empty addresses from a recipient list.
func Addresses(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
