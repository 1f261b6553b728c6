package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/config"
)

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
}

func NewSMTPMailer(cfg config.Mail) *SMTPMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.From,
		timeout:  timeout,
	}
}

func (m *SMTPMailer) Name() string { return "smtp" }

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	sender, err := netmail.ParseAddress(m.from)
	if err != nil {
		return fmt.Errorf("invalid MAIL_FROM %q: %w", m.from, err)
	}

	addr := net.JoinHostPort(m.host, m.port)
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig(m.host)); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.username != "" && m.password != "" {
		if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(sender.Address); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMIME(m.from, msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	if err := client.Quit(); err != nil {
		log.Warnf("[Mail] SMTP quit: %v", err)
	}

	log.Infof("[Mail] Sent %q to %s via %s", msg.Subject, msg.To, addr)
	return nil
}

func buildMIME(from string, msg Message) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, msg.To, mime.QEncoding.Encode("utf-8", msg.Subject)) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.HTML,
	)
}

func tlsConfig(host string) *tls.Config {
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}
