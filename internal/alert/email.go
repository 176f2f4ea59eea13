package alert

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wneessen/go-mail"
)

// EmailConfig is the SMTP relay used for anomaly emails.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// EmailSink sends one plain-text email per payload.
type EmailSink struct {
	cfg     EmailConfig
	deliver func(ctx context.Context, m *mail.Msg) error
}

func NewEmailSink(cfg EmailConfig) (*EmailSink, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required for email alerts")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("at least one alert recipient is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	s := &EmailSink{cfg: cfg}
	s.deliver = s.dialAndSend
	return s, nil
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.message(p)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *EmailSink) message(p Payload) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := m.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid alert recipients: %w", err)
	}
	m.Subject(Subject(p))
	m.SetBodyString(mail.TypeTextPlain, messageBody(p))
	return m, nil
}

func (s *EmailSink) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func (s *EmailSink) dialAndSend(ctx context.Context, m *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

func Subject(p Payload) string {
	return fmt.Sprintf("[%s] SalesFlow anomaly", strings.ToUpper(string(p.Severity)))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func messageBody(p Payload) string {
	lines := []string{
		"An anomaly has been detected.",
		"",
		"Scope      : " + string(p.Scope),
		"SKU        : " + deref(p.SKU),
		"Product    : " + deref(p.Name),
		"Period     : " + string(p.Period),
		"",
		"Type       : " + string(p.Type),
		"Date       : " + p.Date,
		"Value      : " + strconv.FormatFloat(p.Value, 'f', -1, 64),
		"Z-Score    : " + strconv.FormatFloat(p.Score, 'f', -1, 64),
		"",
		"Explanation:",
		p.Explanation,
	}
	return strings.Join(lines, "\n") + "\n"
}
