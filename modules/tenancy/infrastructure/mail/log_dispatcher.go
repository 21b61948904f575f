package mail

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
)

// LogDispatcher writes verification links to the log instead of mailing
// them. Used when SMTP is disabled.
type LogDispatcher struct {
	logger *logrus.Logger
}

func NewLogDispatcher(logger *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendVerification(_ context.Context, msg services.VerificationMessage) error {
	d.logger.WithFields(logrus.Fields{
		"to":          msg.To,
		"tenant_slug": msg.TenantSlug,
		"expires_at":  msg.ExpiresAt,
	}).Infof("verification link: %s", msg.Link)
	return nil
}
