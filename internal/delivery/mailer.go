package delivery

import (
	"context"
	"io"

	"gopkg.in/gomail.v2"

	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// DocumentSender delivers a document to a recipient. A failed send must
// leave the session's sent flag untouched, so implementations return an
// error instead of reporting partial success.
type DocumentSender interface {
	Send(ctx context.Context, to, subject, body, attachmentName string, attachment []byte) error
}

// SMTPConfig configures the gomail-backed sender.
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	Sender   string `envconfig:"SMTP_SENDER"`
}

// Enabled reports whether enough configuration is present to send mail.
// An unconfigured mailer degrades to a nil collaborator at wire-up time.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Sender != ""
}

// SMTPSender sends documents over SMTP with the attachment inlined.
type SMTPSender struct {
	dialer *gomail.Dialer
	sender string
}

// NewSMTPSender creates the sender from config.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
	}
}

// Send delivers one message. gomail dials per call, which keeps the sender
// stateless across turns.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body, attachmentName string, attachment []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if len(attachment) > 0 {
		m.Attach(attachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		logx.Error().Err(err).Str("to", to).Msg("Failed to send document email")
		return errx.WrapMail(err)
	}

	logx.Info().Str("to", to).Str("attachment", attachmentName).Msg("Document email sent")
	return nil
}

var _ DocumentSender = (*SMTPSender)(nil)
