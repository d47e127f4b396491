package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/gomail.v2"

	"github.com/samandr77/microservices/onboarding/pkg/config"
)

var htmlTag = regexp.MustCompile("<[^>]+>")

type Client struct {
	cfg    config.MailConfig
	sender gomail.Sender
}

func New(cfg config.MailConfig) *Client {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Login, cfg.Password)

	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &Client{
		cfg:    cfg,
		sender: dialerSender{dialer},
	}
}

// NewWithSender builds a client that hands messages to sender instead of dialing SMTP.
func NewWithSender(cfg config.MailConfig, sender gomail.Sender) *Client {
	return &Client{cfg: cfg, sender: sender}
}

// SendEmail delivers a single message. It lets the client act as a notifier
// when no message broker is configured.
func (c *Client) SendEmail(_ context.Context, address, subject, body string) error {
	return c.SendMessage(subject, body, []string{address}, "")
}

func (c *Client) SendMessage(subject, message string, recipients []string, contentType string) error {
	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)

	msg.SetAddressHeader("From", c.cfg.From, c.cfg.FromName)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)

	switch contentType {
	case "text/html", "text/plain":
		msg.SetBody(contentType, message)
	default:
		if htmlTag.MatchString(message) {
			msg.SetBody("text/html", message)
		} else {
			msg.SetBody("text/plain", message)
		}
	}

	err := gomail.Send(c.sender, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

type dialerSender struct {
	d *gomail.Dialer
}

func (s dialerSender) Send(from string, to []string, msg io.WriterTo) error {
	closer, err := s.d.Dial()
	if err != nil {
		return err
	}
	defer closer.Close()

	return closer.Send(from, to, msg)
}
