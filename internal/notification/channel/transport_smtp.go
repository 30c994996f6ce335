package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"franchise-notifications/internal/models"

	"github.com/google/uuid"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	FromName string
}

// SMTPTransport relays messages through an SMTP server. It is meant for local
// relays and mail catchers; production traffic goes through SES.
type SMTPTransport struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, addr string) (*smtp.Client, error)
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, dial: dialSMTP}
}

func dialSMTP(ctx context.Context, addr string) (*smtp.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}
	host, _, _ := net.SplitHostPort(addr)
	return smtp.NewClient(conn, host)
}

func (t *SMTPTransport) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), t.cfg.Host)
	body, err := t.buildMessage(msg, messageID)
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	client, err := t.dial(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if t.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			return "", fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if t.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
			return "", fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return "", fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return "", fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close data writer: %w", err)
	}
	_ = client.Quit()

	return messageID, nil
}

// buildMessage writes a multipart/alternative message with text and HTML parts.
func (t *SMTPTransport) buildMessage(msg EmailMessage, messageID string) ([]byte, error) {
	var b strings.Builder
	from := (&mail.Address{Name: t.cfg.FromName, Address: t.cfg.From}).String()

	mw := multipart.NewWriter(&b)
	headers := []string{
		"From: " + from,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + mimeEncode(msg.Subject),
		"Message-ID: " + messageID,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	headers = append(headers, priorityHeaders(msg.Priority)...)

	var out strings.Builder
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if _, err := pw.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	out.WriteString(b.String())
	return []byte(out.String()), nil
}

func priorityHeaders(p models.NotificationPriority) []string {
	switch p {
	case models.PriorityUrgent, models.PriorityHigh:
		return []string{"X-Priority: 1", "Importance: high"}
	case models.PriorityLow:
		return []string{"X-Priority: 5", "Importance: low"}
	}
	return []string{"X-Priority: 3"}
}

func mimeEncode(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
