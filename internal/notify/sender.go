package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/havenhq/haven/internal/config"
	"github.com/resend/resend-go/v2"
)

// Email is a rendered message ready for a Sender.
type Email struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// NewSender picks the Sender named by cfg.Provider.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return &LogSender{logger: logger}, nil
	case "smtp":
		return &SMTPSender{cfg: cfg}, nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend api key is required")
		}
		return NewResendSender(resend.NewClient(cfg.ResendAPIKey), cfg.From, logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// LogSender writes emails to the log instead of sending them. Used in
// development.
type LogSender struct {
	logger *slog.Logger
}

// Send logs the envelope.
func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.Info("email (log provider)",
		"to", strings.Join(email.To, ","),
		"subject", email.Subject,
		"bytes", len(email.HTML))
	return nil
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendSender wraps an existing client, so tests can point BaseURL at a
// fake server.
func NewResendSender(client *resend.Client, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{client: client, from: from, logger: logger}
}

// Send posts the email. Rate limiting is reported, not retried here; the
// worker decides whether to retry.
func (s *ResendSender) Send(ctx context.Context, email Email) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn("resend rate limit exceeded",
				"limit", rateLimitErr.Limit,
				"remaining", rateLimitErr.Remaining,
				"reset", rateLimitErr.Reset)
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info("email sent via Resend", "email_id", sent.Id, "recipients", len(email.To))
	return nil
}

// SMTPSender delivers over SMTP with STARTTLS.
type SMTPSender struct {
	cfg config.EmailConfig
}

// Send opens one connection per email.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	from := s.cfg.From
	if addr, err := parseFrom(from); err == nil {
		from = addr
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range email.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(buildMIME(s.cfg.From, email)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func parseFrom(from string) (string, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}

func buildMIME(from string, email Email) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.HTML)
	return msg.Bytes()
}
