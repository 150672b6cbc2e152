// Package mailer delivers the rendered digest over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/retry"
)

const defaultTimeout = 20 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Message is one outgoing mail with text and HTML alternatives.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages, retrying transient SMTP failures.
type Mailer struct {
	cfg     Config
	retry   retry.Config
	metrics *metrics.Metrics
	log     *slog.Logger

	// send performs one delivery attempt; swapped in tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg Config, rc retry.Config, m *metrics.Metrics, log *slog.Logger) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	mr := &Mailer{cfg: cfg, retry: rc, metrics: m, log: log}
	mr.send = mr.dialAndSend
	return mr
}

// Send builds the message and delivers it. Invalid addresses fail at once;
// SMTP errors are retried per the retry config.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	mm, err := buildMsg(msg)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, m.retry, m.log, "send mail", func(ctx context.Context) error {
		return m.send(ctx, mm)
	})
	if err != nil {
		return err
	}

	m.metrics.IncrementMailsSent()
	m.log.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func buildMsg(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("no recipients")
	}

	mm := mail.NewMsg()
	if err := mm.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", msg.From, err)
	}
	if err := mm.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient list: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return mm, nil
}

// clientOptions maps the port to the transport security: 465 is implicit
// TLS, 587 requires STARTTLS, anything else upgrades when offered.
func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	switch m.cfg.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return opts
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send via %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}
	return nil
}
