// Package mailer delivers the rendered digest over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"
	"time"

	"github.com/wneessen/go-mail"
)

// Config holds the SMTP account used to send the digest. The sender address
// doubles as the SMTP user name.
type Config struct {
	Server   string
	Port     int
	Sender   string
	Password string
	Receiver string
	Timeout  time.Duration
}

// Mailer sends one HTML message per digest.
type Mailer struct {
	cfg    Config
	logger *slog.Logger
	dial   func(ctx context.Context, security mail.Option) (conn, error)
}

// conn is an authenticated SMTP session.
type conn interface {
	Send(messages ...*mail.Msg) error
	Close() error
}

// New returns a Mailer for cfg.
func New(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	m := &Mailer{cfg: cfg, logger: logger}
	m.dial = m.connect
	return m
}

// Subject returns the subject line of the digest sent at t.
func Subject(t time.Time) string {
	return "Daily arXiv " + t.Format("2006/01/02")
}

// BuildMessage assembles the digest message for the HTML body.
func (m *Mailer) BuildMessage(html string, now time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat("Arxiv Daily", m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.AddToFormat("You", m.cfg.Receiver); err != nil {
		return nil, fmt.Errorf("invalid receiver address: %w", err)
	}
	msg.Subject(Subject(now))
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextHTML, html)
	return msg, nil
}

// Send delivers html to the receiver. STARTTLS is tried first; when that
// connection cannot be set up, an implicit TLS connection is used instead.
// Rejected credentials and failures after the message was handed over are
// returned as they are.
func (m *Mailer) Send(ctx context.Context, html string, now time.Time) error {
	msg, err := m.BuildMessage(html, now)
	if err != nil {
		return err
	}

	c, err := m.dial(ctx, mail.WithTLSPolicy(mail.TLSMandatory))
	if err != nil && !isAuthFailure(err) {
		m.logger.Warn("failed to use STARTTLS, trying SSL", "server", m.cfg.Server, "port", m.cfg.Port, "error", err)
		c, err = m.dial(ctx, mail.WithSSL())
	}
	if err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			m.logger.Debug("failed to close SMTP connection", "error", err)
		}
	}()

	if err := c.Send(msg); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}

	m.logger.Info("digest email sent", "receiver", m.cfg.Receiver)
	return nil
}

func (m *Mailer) connect(ctx context.Context, security mail.Option) (conn, error) {
	client, err := mail.NewClient(m.cfg.Server,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Sender),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
		security,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// isAuthFailure reports whether the server refused the credentials. Another
// connection would be refused the same way.
func isAuthFailure(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && (protoErr.Code == 535 || protoErr.Code == 534)
}
