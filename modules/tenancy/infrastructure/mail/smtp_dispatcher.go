package mail

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"gopkg.in/gomail.v2"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// MaxInFlight caps concurrent relay sessions, counting abandoned ones
	// that have not returned yet.
	MaxInFlight int64
}

const defaultMaxInFlight = 4

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPDispatcher sends verification mail through an SMTP relay.
type SMTPDispatcher struct {
	cfg      SMTPConfig
	dialer   sender
	inFlight *semaphore.Weighted
	logger   *logrus.Logger
}

func NewSMTPDispatcher(cfg SMTPConfig, logger *logrus.Logger) *SMTPDispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	return &SMTPDispatcher{
		cfg:      cfg,
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		inFlight: semaphore.NewWeighted(cfg.MaxInFlight),
		logger:   logger,
	}
}

func (d *SMTPDispatcher) SendVerification(ctx context.Context, msg services.VerificationMessage) error {
	body, err := renderVerification(msg)
	if err != nil {
		return errors.Wrap(err, "failed to render verification email")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", d.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/plain", "Verify your email address: "+msg.Link)
	m.AddAlternative("text/html", body)

	// gomail has no context support; an abandoned send finishes in the
	// background but keeps its slot until it returns.
	if err := d.inFlight.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "verification email abandoned, relay busy")
	}
	done := make(chan error, 1)
	go func() {
		defer d.inFlight.Release(1)
		done <- d.dialer.DialAndSend(m)
	}()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "verification email abandoned")
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "failed to send verification email to %s", msg.To)
		}
	}
	d.logger.WithField("tenant_slug", msg.TenantSlug).Info("verification email sent")
	return nil
}
