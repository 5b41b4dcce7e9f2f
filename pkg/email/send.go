package email

import (
	"fmt"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"

	"github.com/pfeif/pytide/pkg/config"
	"github.com/pfeif/pytide/pkg/metrics"
)

// Send connects to the SMTP server once and sends one copy of the report to
// each recipient. A failed recipient is logged and skipped; Send only fails
// when the connection cannot be made or no recipient accepts the message.
func Send(m *Message, recipients []string, smtp config.SMTP, log *zap.SugaredLogger) error {
	d := mail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS

	sender, err := d.Dial()
	if err != nil {
		return fmt.Errorf("connect to SMTP server %s:%d: %w", smtp.Host, smtp.Port, err)
	}
	defer sender.Close()

	return sendAll(m, recipients, sender, log)
}

// sendAll fans the message out over an open connection, readdressing the To
// header per recipient.
func sendAll(m *Message, recipients []string, sender mail.SendCloser, log *zap.SugaredLogger) error {
	sent := 0
	for _, recipient := range recipients {
		m.msg.SetHeader("To", recipient)
		if err := mail.Send(sender, m.msg); err != nil {
			log.Errorw("send failed", "to", recipient, "error", err)
			continue
		}
		metrics.CountEmailSent()
		log.Infow("sent tide report", "to", recipient)
		sent++
	}

	if sent == 0 {
		return fmt.Errorf("no recipient accepted the message")
	}
	return nil
}
