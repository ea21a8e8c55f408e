package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/ecostep/walk-and-win/config"
)

// Message is the payload handed to a Notifier. Text and HTML are
// alternative renderings of the same content.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a message to an address. Implementations must
// respect the context deadline.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP-backed notifier when SMTP is fully configured and
// a log-only notifier otherwise, so development environments work
// without a mail server.
func New(cfg config.SMTPConfig, logger *slog.Logger) Notifier {
	if cfg.Host == "" || cfg.Port == "" || cfg.Username == "" || cfg.Password == "" {
		logger.Warn("SMTP not configured; email delivery will be simulated via logs",
			slog.String("hint", "set SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS and EMAIL_FROM"))
		return &LogNotifier{logger: logger}
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// LogNotifier logs messages instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "Email (simulated)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}

// SMTPNotifier delivers mail over SMTP with STARTTLS when the server
// offers it.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	// The context deadline bounds the whole SMTP conversation, not just
	// the dial.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	from := n.cfg.From
	if from == "" {
		from = "no-reply@ecostep.local"
	}
	if err = client.Mail(envelopeAddress(from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = wc.Write(buildMIME(from, msg)); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	n.logger.InfoContext(ctx, "Email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return client.Quit()
}

// envelopeAddress strips a display name like `EcoStep <a@b.c>` down to
// the bare address the SMTP envelope needs.
func envelopeAddress(from string) string {
	if start := strings.Index(from, "<"); start != -1 {
		if end := strings.Index(from[start:], ">"); end != -1 {
			return from[start+1 : start+end]
		}
	}
	return from
}

// buildMIME renders the message as multipart/alternative so clients can
// pick between the plain-text and HTML bodies.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	var mp *multipart.Writer

	writeHeader := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", msg.Subject)
	writeHeader("MIME-Version", "1.0")

	body := &strings.Builder{}
	mp = multipart.NewWriter(body)
	writeHeader("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mp.Boundary()))
	b.WriteString("\r\n")

	textPart, _ := mp.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	fmt.Fprint(textPart, msg.Text)
	if msg.HTML != "" {
		htmlPart, _ := mp.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
		fmt.Fprint(htmlPart, msg.HTML)
	}
	mp.Close()

	b.WriteString(body.String())
	return []byte(b.String())
}
