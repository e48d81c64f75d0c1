package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trustcast/internal/models"
)

// Subscriber receives audit log lines published by other systems and writes
// them to a channel
type Subscriber struct {
	client mqtt.Client
	log    zerolog.Logger
	now    func() time.Time

	// Output channel (written by subscriber, read by the audit service)
	AuditChan chan *models.LogEntry

	auditTopic string // e.g., "audit/+/log"
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	AuditLogTopic string
}

// NewSubscriber creates a new MQTT subscriber writing to auditChan
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	auditChan chan *models.LogEntry,
	log zerolog.Logger,
) *Subscriber {
	return &Subscriber{
		client:     client,
		log:        log,
		now:        time.Now,
		AuditChan:  auditChan,
		auditTopic: config.AuditLogTopic,
	}
}

// SubscribeAll subscribes to all configured topics
func (s *Subscriber) SubscribeAll() error {
	if s.auditTopic == "" {
		return nil
	}

	token := s.client.Subscribe(s.auditTopic, 1, s.handleAuditLog)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to audit log topic: %w", token.Error())
	}

	s.log.Info().Str("topic", s.auditTopic).Msg("subscribed")
	return nil
}

// handleAuditLog decodes one JSON audit entry. Missing id, timestamp, actor
// and level are filled in; entries with an unknown level are dropped.
func (s *Subscriber) handleAuditLog(_ mqtt.Client, msg mqtt.Message) {
	var entry models.LogEntry
	if err := json.Unmarshal(msg.Payload(), &entry); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid audit log payload")
		return
	}

	switch entry.Level {
	case models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
	case "":
		entry.Level = models.SeverityInfo
	default:
		s.log.Warn().Str("level", string(entry.Level)).Msg("unknown audit level, dropping entry")
		return
	}

	if entry.Actor == "" {
		entry.Actor = extractSource(msg.Topic())
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	select {
	case s.AuditChan <- &entry:
	case <-time.After(1 * time.Second):
		s.log.Warn().Str("actor", entry.Actor).Msg("audit channel full, dropping entry")
	}
}

// extractSource extracts the publisher name from an MQTT topic
// Example: "audit/gateway-01/log" -> "gateway-01"
func extractSource(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
