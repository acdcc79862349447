package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditEventStampsUTC(t *testing.T) {
	ev := NewAuditEvent("audit.user.created", "admin-1", "usr-1", map[string]string{"role": "USER"})

	at, err := time.Parse(time.RFC3339, ev.At)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), at, 5*time.Second)
	assert.Equal(t, "audit.user.created", ev.Action)
	assert.Equal(t, "admin-1", ev.ActorID)
	assert.Equal(t, "usr-1", ev.TargetID)
}

func TestFormatLine(t *testing.T) {
	ev := AuditEvent{
		Action:   "audit.user.updated",
		ActorID:  "admin-1",
		TargetID: "usr-1",
		Context:  map[string]string{"fields": "name,email", "b": "2", "a": "1"},
		At:       "2026-01-02T15:04:05Z",
	}

	line := FormatLine(ev)
	assert.Equal(t,
		"[2026-01-02T15:04:05Z] audit.user.updated | actor=admin-1 | target=usr-1 | a=\"1\" | b=\"2\" | fields=\"name,email\"\n",
		line)
}

func TestFormatLineOmitsEmptyTarget(t *testing.T) {
	ev := AuditEvent{Action: "audit.auth.logout", ActorID: "usr-1", At: "2026-01-02T15:04:05Z"}
	assert.Equal(t, "[2026-01-02T15:04:05Z] audit.auth.logout | actor=usr-1\n", FormatLine(ev))
}
