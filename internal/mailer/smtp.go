package mailer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	// From is the envelope and header sender, e.g. `"Digital Indian" <x@y>`.
	From string
	// Timeout bounds the whole dial-auth-send exchange for one message.
	Timeout time.Duration
}

// ConfigFromEnv reads SMTP settings from environment variables.
func ConfigFromEnv() Config {
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "465"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = os.Getenv("EMAIL_USER")
	}
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("EMAIL_USER"),
		Password: os.Getenv("EMAIL_PASS"),
		From:     from,
		Timeout:  10 * time.Second,
	}
}

// SMTPMailer delivers messages over a plain SMTP relay. Port 465 uses
// implicit TLS; other ports upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func NewSMTPMailer(cfg Config, logger *zap.SugaredLogger) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Verify dials the relay once and quits, so a bad configuration shows up
// in the logs at startup instead of on the first subscribe.
func (m *SMTPMailer) Verify(ctx context.Context) error {
	c, err := m.connect(ctx)
	if err != nil {
		return err
	}
	return c.Quit()
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("%w: SMTP_HOST not configured", ErrSendFailed)
	}
	c, err := m.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer c.Close()

	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	if err := c.Mail(envelopeAddr(from)); err != nil {
		return fmt.Errorf("%w: mail from: %v", ErrSendFailed, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%w: rcpt to: %v", ErrSendFailed, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %v", ErrSendFailed, err)
	}
	if _, err := w.Write(buildMIME(from, msg)); err != nil {
		return fmt.Errorf("%w: write body: %v", ErrSendFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close body: %v", ErrSendFailed, err)
	}
	m.logger.Debugw("mail sent", "to", msg.To, "subject", msg.Subject)
	return c.Quit()
}

// connect dials the relay with a bounded timeout and authenticates.
func (m *SMTPMailer) connect(ctx context.Context) (*smtp.Client, error) {
	timeout := m.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	var conn net.Conn
	var err error
	if m.cfg.Port == "465" {
		d := &net.Dialer{Timeout: timeout}
		conn, err = tls.DialWithDialer(d, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	} else {
		conn, err = net.DialTimeout("tcp", addr, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.SetDeadline(time.Now().Add(timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if m.cfg.Port != "465" {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				c.Close()
				return nil, err
			}
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// buildMIME renders the message headers and body. Attachments force a
// multipart/mixed envelope with base64 parts.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	if msg.ReplyTo != "" {
		b.WriteString("Reply-To: " + msg.ReplyTo + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	bodyType := "text/plain; charset=UTF-8"
	body := msg.Text
	if msg.HTML != "" {
		bodyType = "text/html; charset=UTF-8"
		body = msg.HTML
	}

	if len(msg.Attachments) == 0 {
		b.WriteString("Content-Type: " + bodyType + "\r\n\r\n")
		b.WriteString(body)
		b.WriteString("\r\n")
		return []byte(b.String())
	}

	const boundary = "di-mail-boundary-7f3a9c"
	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: " + bodyType + "\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	for _, att := range msg.Attachments {
		ct := att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: " + ct + "\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString("Content-Disposition: attachment; filename=\"" + att.Filename + "\"\r\n\r\n")
		enc := base64.StdEncoding.EncodeToString(att.Content)
		// wrap base64 at 76 chars per RFC 2045
		for len(enc) > 76 {
			b.WriteString(enc[:76] + "\r\n")
			enc = enc[76:]
		}
		b.WriteString(enc + "\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

// envelopeAddr strips a display name from `"Name" <addr>` forms.
func envelopeAddr(s string) string {
	if i := strings.LastIndex(s, "<"); i >= 0 {
		if j := strings.LastIndex(s, ">"); j > i {
			return s[i+1 : j]
		}
	}
	return s
}
