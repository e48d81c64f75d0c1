package mqtt

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcast/internal/models"
)

func newTestSubscriber(client *fakeClient) *Subscriber {
	s := NewSubscriber(client, SubscriberConfig{AuditLogTopic: "audit/+/log"},
		make(chan *models.LogEntry, 4), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestExtractSource(t *testing.T) {
	assert.Equal(t, "gateway-01", extractSource("audit/gateway-01/log"))
	assert.Equal(t, "", extractSource("audit"))
}

func TestSubscriber_SubscribeAll(t *testing.T) {
	client := &fakeClient{}
	s := newTestSubscriber(client)

	require.NoError(t, s.SubscribeAll())
	assert.Contains(t, client.subscribed, "audit/+/log")
}

func TestSubscriber_FillsMissingFields(t *testing.T) {
	s := newTestSubscriber(&fakeClient{})

	s.handleAuditLog(nil, &fakeMessage{
		topic:   "audit/gateway-01/log",
		payload: []byte(`{"action":"Firmware pushed","details":"v2.1"}`),
	})

	require.Len(t, s.AuditChan, 1)
	entry := <-s.AuditChan
	assert.Equal(t, "gateway-01", entry.Actor)
	assert.Equal(t, models.SeverityInfo, entry.Level)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 2024, entry.Timestamp.Year())
	assert.Equal(t, "Firmware pushed", entry.Action)
}

func TestSubscriber_KeepsProvidedFields(t *testing.T) {
	s := newTestSubscriber(&fakeClient{})

	s.handleAuditLog(nil, &fakeMessage{
		topic: "audit/gateway-01/log",
		payload: []byte(`{"id":"e-1","time":"2024-01-02T03:04:05Z","actor":"admin",` +
			`"action":"Key rotated","details":"","level":"Critical"}`),
	})

	require.Len(t, s.AuditChan, 1)
	entry := <-s.AuditChan
	assert.Equal(t, "e-1", entry.ID)
	assert.Equal(t, "admin", entry.Actor)
	assert.Equal(t, models.SeverityCritical, entry.Level)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), entry.Timestamp.UTC())
}

func TestSubscriber_DropsInvalidPayloads(t *testing.T) {
	s := newTestSubscriber(&fakeClient{})

	s.handleAuditLog(nil, &fakeMessage{topic: "audit/x/log", payload: []byte("not json")})
	s.handleAuditLog(nil, &fakeMessage{topic: "audit/x/log", payload: []byte(`{"level":"Debug"}`)})

	assert.Empty(t, s.AuditChan)
}
