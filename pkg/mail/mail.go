// Package mail sends transactional email over SMTP.
//
// Usage:
//
//	m := mail.NewSMTPMailer(mail.SMTP{Host: "smtp.gmail.com", Port: "587", ...})
//	err := m.Send(ctx, mail.Message{
//	    To:      []string{"user@example.com"},
//	    Subject: "Your OTP Code",
//	    Text:    "Your OTP is 123456",
//	    HTML:    "<p>Your OTP is <b>123456</b></p>",
//	})
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Message is a single outgoing email. When both Text and HTML are set the
// body is multipart/alternative.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer delivers over SMTP. Port 465 uses implicit TLS; other ports
// upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg     SMTP
	timeout time.Duration
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTP) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: 15 * time.Second}
}

// Send delivers msg via SMTP.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	cfg := m.cfg
	if cfg.Username == "" {
		return errors.New("mail: MAIL_USERNAME not configured")
	}
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}

	raw, err := Build(cfg.From, cfg.FromName, msg)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > m.timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	conn, err := m.dial(ctx, addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if cfg.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}
	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if m.cfg.Port == "465" {
		d := &tls.Dialer{Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("mail: TLS dial: %w", err)
		}
		return conn, nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mail: dial: %w", err)
	}
	return conn, nil
}

// LogMailer writes messages to the logger instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.WithCtx(ctx).Info("mail: message not sent (log driver)",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

// Build renders msg as an RFC 5322 message.
func Build(from, fromName string, msg Message) ([]byte, error) {
	var b bytes.Buffer
	sender := from
	if fromName != "" {
		sender = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), from)
	}
	b.WriteString("From: " + sender + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.Text != "" && msg.HTML != "":
		mw := multipart.NewWriter(&b)
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary()))
		for _, part := range []struct{ ct, body string }{
			{"text/plain", msg.Text},
			{"text/html", msg.HTML},
		} {
			w, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type": {part.ct + `; charset="UTF-8"`},
			})
			if err != nil {
				return nil, fmt.Errorf("mail: build: %w", err)
			}
			if _, err := w.Write([]byte(part.body)); err != nil {
				return nil, fmt.Errorf("mail: build: %w", err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("mail: build: %w", err)
		}
	case msg.HTML != "":
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Text)
	}
	return b.Bytes(), nil
}
