package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"sync"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMailer implements messaging.Mailer with the Gmail API
type GmailMailer struct {
	auth ClientProvider
	opts []option.ClientOption

	mu      sync.Mutex
	service *gmail.Service
}

// NewGmailMailer creates a mailer that sends as the signed-in user
func NewGmailMailer(auth ClientProvider, opts ...option.ClientOption) *GmailMailer {
	return &GmailMailer{auth: auth, opts: opts}
}

func (m *GmailMailer) getService(ctx context.Context) (*gmail.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.service != nil {
		return m.service, nil
	}

	httpClient, err := m.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize mail access: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, m.opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}
	m.service = srv
	return srv, nil
}

// Send delivers a plain-text message
func (m *GmailMailer) Send(ctx context.Context, to, subject, body string) error {
	srv, err := m.getService(ctx)
	if err != nil {
		return err
	}

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(buildMessage(to, subject, body))),
	}
	if _, err := srv.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// buildMessage renders an RFC 5322 message; non-ASCII subjects are Q-encoded
func buildMessage(to, subject, body string) string {
	var sb strings.Builder

	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return sb.String()
}
