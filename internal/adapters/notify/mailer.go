package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reminderTemplate = template.Must(template.ParseFS(templateFS, "templates/reminder.tmpl"))

const sendAttempts = 3

// reminderData is what the reminder template renders
type reminderData struct {
	RecipientName string
	TaskTitle     string
	Due           string
}

func newReminderData(n ports.Notification) reminderData {
	due := "soon"
	if n.DueDate != nil {
		due = "on " + n.DueDate.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}
	return reminderData{
		RecipientName: n.RecipientName,
		TaskTitle:     n.TaskTitle,
		Due:           due,
	}
}

// Mailer delivers reminders over SMTP
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

// NewMailer creates an SMTP dispatcher from config
func NewMailer(cfg config.SMTPConfig) *Mailer {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 10 * time.Second
	return &Mailer{
		dialer: dialer,
		sender: cfg.Sender,
	}
}

// NewDispatcher returns the SMTP mailer when a host is configured and a
// LogDispatcher otherwise
func NewDispatcher(cfg config.SMTPConfig, logger *logger.Logger) ports.Dispatcher {
	if cfg.Host == "" {
		return NewLogDispatcher(logger)
	}
	return NewMailer(cfg)
}

// Send renders the reminder and sends it, retrying a few times
func (m *Mailer) Send(ctx context.Context, n ports.Notification) error {
	msg, err := m.message(n)
	if err != nil {
		return err
	}

	for i := 0; i < sendAttempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = m.dialer.DialAndSend(msg); err == nil {
			return nil
		}
	}
	return fmt.Errorf("send mail to %s: %w", n.RecipientEmail, err)
}

func (m *Mailer) message(n ports.Notification) (*mail.Message, error) {
	subject, plainBody, htmlBody, err := render(n)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", n.RecipientEmail)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)
	return msg, nil
}

func render(n ports.Notification) (subject, plainBody, htmlBody string, err error) {
	data := newReminderData(n)

	var buf bytes.Buffer
	parts := []string{"subject", "plainBody", "htmlBody"}
	out := make([]string, len(parts))
	for i, name := range parts {
		buf.Reset()
		if err := reminderTemplate.ExecuteTemplate(&buf, name, data); err != nil {
			return "", "", "", fmt.Errorf("render %s: %w", name, err)
		}
		out[i] = buf.String()
	}
	return out[0], out[1], out[2], nil
}
