package mailer

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Message is one outbound email.
type Message struct {
	To            string
	ToName        string
	Subject       string
	HTMLBody      string
	PlainBody     string
	AttachmentRef string
}

// Mailer is the interface for the outbound email delivery client. Send
// returns the provider message id used later to correlate delivery webhooks.
type Mailer interface {
	Send(msg Message) (providerMessageID string, err error)
}

// Config holds the configuration for the mailer
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// SMTPMailer implements the Mailer interface using SMTP
type SMTPMailer struct {
	config   *Config
	testMode bool
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config:   config,
		testMode: false,
	}
}

// NewTestSMTPMailer creates a new SMTP mailer in test mode (won't connect to SMTP server)
func NewTestSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config:   config,
		testMode: true,
	}
}

// Send delivers the message and returns the generated message id.
func (m *SMTPMailer) Send(message Message) (string, error) {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return "", fmt.Errorf("failed to set email from address: %w", err)
	}

	if message.ToName != "" {
		if err := msg.AddToFormat(message.ToName, message.To); err != nil {
			return "", fmt.Errorf("failed to set email recipient: %w", err)
		}
	} else {
		if err := msg.To(message.To); err != nil {
			return "", fmt.Errorf("failed to set email recipient: %w", err)
		}
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTMLBody)
	if message.PlainBody != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, message.PlainBody)
	}

	// The message id doubles as the webhook correlation key, so it is
	// generated here instead of letting the server pick one.
	messageID := m.newMessageID()
	msg.SetMessageIDWithValue(messageID)

	client, err := m.createSMTPClient()
	if err != nil {
		return "", err
	}

	// For testing - log information if client is nil
	if client == nil {
		log.Printf("Sending email to: %s", message.To)
		log.Printf("From: %s <%s>", m.config.FromName, m.config.FromEmail)
		log.Printf("Subject: %s", message.Subject)
		return messageID, nil
	}

	if err := client.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return messageID, nil
}

func (m *SMTPMailer) newMessageID() string {
	domain := "localhost"
	if at := strings.LastIndex(m.config.FromEmail, "@"); at >= 0 && at < len(m.config.FromEmail)-1 {
		domain = m.config.FromEmail[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.New().String(), domain)
}

func (m *SMTPMailer) createSMTPClient() (*mail.Client, error) {
	// In test mode, return nil client to avoid SMTP connections
	if m.testMode {
		return nil, nil
	}

	clientOptions := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}

	// Only add authentication if username and password are provided.
	// This allows for unauthenticated SMTP servers (e.g., local relays, port 25).
	if m.config.SMTPUsername != "" && m.config.SMTPPassword != "" {
		clientOptions = append(clientOptions,
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	client, err := mail.NewClient(m.config.SMTPHost, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client, nil
}

// ConsoleMailer is a development implementation that just logs emails
type ConsoleMailer struct{}

// NewConsoleMailer creates a new console mailer for development
func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

// Send logs the email instead of delivering it.
func (m *ConsoleMailer) Send(message Message) (string, error) {
	messageID := fmt.Sprintf("%s@console", uuid.New().String())
	log.Printf("To: %s <%s>", message.ToName, message.To)
	log.Printf("Subject: %s", message.Subject)
	log.Printf("Message-ID: %s", messageID)
	return messageID, nil
}
