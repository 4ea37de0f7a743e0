package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"backend/internal/metrics"
	"backend/pkg/apperror"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the mail transport settings read at process start.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Fallback receives mail when no role-matched approver has an email.
	Fallback string
}

// sendFunc abstracts the actual SMTP dial so tests can capture messages.
type sendFunc func(msg *gomail.Message) error

// Mailer is the SMTP Dispatcher. Construct it once at startup and pass it
// to the services; there is no package-level transport state.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewMailer(cfg SMTPConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		cfg:  cfg,
		send: func(msg *gomail.Message) error { return dialer.DialAndSend(msg) },
	}
}

// Send delivers one message. An empty recipient list falls back to the
// configured operator mailbox; with neither present the send is skipped
// with a warning and no error, matching the transition's best-effort
// contract.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	to := Addresses(msg.To)
	if len(to) == 0 && m.cfg.Fallback != "" {
		log.Printf("notify: no recipients for %q, falling back to %s", msg.Subject, m.cfg.Fallback)
		to = []string{m.cfg.Fallback}
	}
	if len(to) == 0 {
		log.Printf("notify: no recipients and no fallback mailbox, skipping %q", msg.Subject)
		metrics.NotificationsSkipped.Inc()
		return nil
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.From)
	mail.SetHeader("To", to...)
	if cc := Addresses(msg.CC); len(cc) > 0 {
		mail.SetHeader("Cc", cc...)
	}
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTML)
	if len(msg.Attachment) > 0 {
		attachment := msg.Attachment
		mail.Attach(msg.AttachName,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(attachment))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		)
	}

	if err := m.send(mail); err != nil {
		metrics.NotificationFailures.Inc()
		return fmt.Errorf("%w: send mail: %v", apperror.ErrDependency, err)
	}
	return nil
}
