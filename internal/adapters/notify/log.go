package notify

import (
	"context"

	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// LogDispatcher writes reminders to the log instead of sending them.
// Used when no SMTP host is configured.
type LogDispatcher struct {
	logger *logger.Logger
}

func NewLogDispatcher(logger *logger.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, n ports.Notification) error {
	subject, plainBody, _, err := render(n)
	if err != nil {
		return err
	}

	d.logger.Infow("reminder email",
		"to", n.RecipientEmail,
		"subject", subject,
		"body", plainBody,
	)
	return nil
}
