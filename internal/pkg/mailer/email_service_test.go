package mailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lucide-core/internal/config"
	"lucide-core/pkg/actions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_WritesDraft(t *testing.T) {
	dir := t.TempDir()
	svc := NewEmailService(config.SMTPConfig{}, config.ActionsConfig{DraftDir: dir, SendEmail: true})
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	msg, err := svc.Deliver(context.Background(), actions.Email{
		To:      []string{"alice@example.com"},
		Subject: "Réunion budget Q3!",
		Body:    "Bonjour Alice",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "Draft saved to "))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "20260102-030405-r-union-budget-q3.eml", entries[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "To: alice@example.com")
	assert.Contains(t, string(raw), "Bonjour Alice")
}

func TestDeliver_EmptySubjectUsesDraftName(t *testing.T) {
	dir := t.TempDir()
	svc := NewEmailService(config.SMTPConfig{}, config.ActionsConfig{DraftDir: dir})

	_, err := svc.Deliver(context.Background(), actions.Email{Body: "note"})
	require.NoError(t, err)

	entries, _ := os.ReadDir(dir)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "-draft.eml"))
}

func TestDeliver_CancelledContext(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{}, config.ActionsConfig{DraftDir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Deliver(ctx, actions.Email{Body: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
