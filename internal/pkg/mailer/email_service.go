package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"lucide-core/internal/config"
	"lucide-core/pkg/actions"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("email has no recipient")

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// EmailService turns EMAIL actions into drafts on disk, or sends them
// through SMTP when sending is enabled and configured.
type EmailService struct {
	dialer     *gomail.Dialer
	sender     string
	senderName string
	draftDir   string
	send       bool
	now        func() time.Time
}

func NewEmailService(smtp config.SMTPConfig, acts config.ActionsConfig) *EmailService {
	s := &EmailService{
		sender:     smtp.Email,
		senderName: smtp.SenderName,
		draftDir:   acts.DraftDir,
		send:       acts.SendEmail && smtp.Configured(),
		now:        time.Now,
	}
	if smtp.Configured() {
		s.dialer = gomail.NewDialer(smtp.Host, smtp.Port, smtp.Email, smtp.Password)
	}
	return s
}

func (s *EmailService) Deliver(ctx context.Context, email actions.Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := s.buildMessage(email)

	if s.send {
		if len(email.To) == 0 {
			return "", ErrNoRecipient
		}
		if err := s.dialer.DialAndSend(m); err != nil {
			return "", fmt.Errorf("failed to send email: %w", err)
		}
		return fmt.Sprintf("Email sent to %s", strings.Join(email.To, ", ")), nil
	}

	path, err := s.writeDraft(m, email.Subject)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Draft saved to %s", path), nil
}

func (s *EmailService) buildMessage(email actions.Email) *gomail.Message {
	m := gomail.NewMessage()
	if s.sender != "" {
		m.SetAddressHeader("From", s.sender, s.senderName)
	}
	if len(email.To) > 0 {
		m.SetHeader("To", email.To...)
	}
	if len(email.Cc) > 0 {
		m.SetHeader("Cc", email.Cc...)
	}
	m.SetHeader("Subject", email.Subject)
	m.SetDateHeader("Date", s.now())
	m.SetBody("text/plain", email.Body)
	return m
}

func (s *EmailService) writeDraft(m *gomail.Message, subject string) (string, error) {
	if err := os.MkdirAll(s.draftDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create draft directory: %w", err)
	}

	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(subject), "-"), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "draft"
	}
	name := fmt.Sprintf("%s-%s.eml", s.now().Format("20060102-150405"), slug)
	path := filepath.Join(s.draftDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	defer f.Close()

	if _, err := m.WriteTo(f); err != nil {
		return "", fmt.Errorf("failed to write draft: %w", err)
	}
	return path, nil
}
