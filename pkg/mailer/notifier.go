package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	tpl "github.com/oksasatya/stockmaster/pkg/mailer/templates"
)

// JobPublisher enqueues an EmailJob for the email worker.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailgunNotifier renders the verification email and sends it synchronously.
type MailgunNotifier struct {
	Sender   Sender
	Branding tpl.Branding
	Timeout  time.Duration
	Now      func() time.Time
}

func NewMailgunNotifier(sender Sender, branding tpl.Branding, timeout time.Duration) *MailgunNotifier {
	return &MailgunNotifier{Sender: sender, Branding: branding, Timeout: timeout, Now: time.Now}
}

// SendOTP delivers code to the given address within the configured timeout.
func (n *MailgunNotifier) SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error {
	data := tpl.NewVerifyEmailOTPData(n.Branding, to, code, tpl.WithExpiresAt(expiresAt, n.Now()))
	subject, text, html, err := tpl.Render(tpl.VerifyEmailOTP, data)
	if err != nil {
		return err
	}
	c, cancel := withTimeout(ctx, n.Timeout)
	defer cancel()
	return n.Sender.Send(c, to, subject, text, html)
}

// QueueNotifier enqueues the verification email; cmd/email_worker renders and sends it.
type QueueNotifier struct {
	Pub      JobPublisher
	Branding tpl.Branding
	Timeout  time.Duration
	Now      func() time.Time
}

func NewQueueNotifier(pub JobPublisher, branding tpl.Branding, timeout time.Duration) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Branding: branding, Timeout: timeout, Now: time.Now}
}

func (n *QueueNotifier) SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error {
	job := EmailJob{
		To:       to,
		Template: tpl.VerifyEmailOTP,
		Data:     tpl.NewVerifyEmailOTPData(n.Branding, to, code, tpl.WithExpiresAt(expiresAt, n.Now())),
	}
	c, cancel := withTimeout(ctx, n.Timeout)
	defer cancel()
	return n.Pub.PublishJSON(c, job)
}

// LogNotifier writes the code to the log instead of sending it (MAIL_DRIVER=log).
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) SendOTP(_ context.Context, to, code string, expiresAt time.Time) error {
	n.Logger.WithFields(logrus.Fields{
		"to":         to,
		"otp":        code,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}).Info("verification email not sent (mail driver=log)")
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
