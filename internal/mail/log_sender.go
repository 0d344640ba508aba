package mail

import "log/slog"

// LogMailSender writes messages to the application log instead of delivering
// them. Intended for development setups without an SMTP server.
type LogMailSender struct{}

func (s *LogMailSender) Send(message *Message) error {
	slog.Info("Mail message (log backend)", "to", message.To, "subject", message.Subject)
	return nil
}

func NewLogMailSender() *LogMailSender {
	return &LogMailSender{}
}
