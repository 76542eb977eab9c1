package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host     string
	Port     int
	FromName string
	From     string
	User     string
	Pass     string
	UseTLS   bool // implicit TLS, usually port 465
}

func NewSMTPMailer(host string, port int, fromName, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:     strings.TrimSpace(host),
		Port:     port,
		FromName: strings.TrimSpace(fromName),
		From:     strings.TrimSpace(from),
		User:     strings.TrimSpace(user),
		Pass:     strings.TrimSpace(pass),
		UseTLS:   useTLS,
	}
}

func (s *SMTPMailer) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	return s.sendEmail(ctx, toEmail, verificationSubject, verificationText(code), verificationHTML(code))
}

func (s *SMTPMailer) SendNotification(ctx context.Context, toEmail, subject, body string) error {
	return s.sendEmail(ctx, toEmail, subject, body, "")
}

func (s *SMTPMailer) buildMessage(toEmail, subject, text, html string) []byte {
	var buf bytes.Buffer

	from := s.From
	if s.FromName != "" {
		from = fmt.Sprintf("%q <%s>", s.FromName, s.From)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if html == "" {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
		fmt.Fprintf(&buf, "%s\r\n", text)
		return buf.Bytes()
	}

	boundary := "trailbliss-alt"
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (s *SMTPMailer) sendEmail(ctx context.Context, toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}
	msg := s.buildMessage(toEmail, subject, text, html)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	dialer := &net.Dialer{}

	var (
		conn net.Conn
		err  error
	)
	if s.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	// Upgrade plain connections when the server offers STARTTLS
	if !s.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(s.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}
