package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"trustcast/internal/models"
)

// Publisher forwards pipeline events from a channel to the broker
type Publisher struct {
	client mqtt.Client
	log    zerolog.Logger

	// Input channel (read by publisher, written by the pipeline service)
	EventChan chan *models.PipelineEvent

	summaryTopic      string
	inferenceTopic    string // e.g., "trust/inference/{state}"
	notificationTopic string
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	FleetSummaryTopic    string
	InferenceResultTopic string
	NotificationTopic    string
}

// NewPublisher creates a new MQTT publisher reading from eventChan
func NewPublisher(
	client mqtt.Client,
	config PublisherConfig,
	eventChan chan *models.PipelineEvent,
	log zerolog.Logger,
) *Publisher {
	return &Publisher{
		client:            client,
		log:               log,
		EventChan:         eventChan,
		summaryTopic:      config.FleetSummaryTopic,
		inferenceTopic:    config.InferenceResultTopic,
		notificationTopic: config.NotificationTopic,
	}
}

// Start publishes events until the context is cancelled or the channel is closed
func (p *Publisher) Start(ctx context.Context) {
	p.log.Info().Msg("publisher starting")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("publisher stopped")
			return

		case event, ok := <-p.EventChan:
			if !ok {
				p.log.Info().Msg("event channel closed, publisher stopped")
				return
			}

			if err := p.publish(event); err != nil {
				p.log.Error().Err(err).Str("kind", string(event.Kind)).Msg("failed to publish event")
			}
		}
	}
}

func (p *Publisher) publish(event *models.PipelineEvent) error {
	topic := p.topicFor(event)
	if topic == "" {
		return fmt.Errorf("no topic configured for event kind %q", event.Kind)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	p.log.Debug().Str("topic", topic).Str("kind", string(event.Kind)).Msg("event published")
	return nil
}

func (p *Publisher) topicFor(event *models.PipelineEvent) string {
	switch event.Kind {
	case models.EventFleetSummary:
		return p.summaryTopic
	case models.EventInference:
		state := ""
		if event.Inference != nil {
			state = string(event.Inference.State)
		}
		return formatTopic(p.inferenceTopic, state)
	case models.EventNotification:
		return p.notificationTopic
	}
	return ""
}

// formatTopic replaces the {state} placeholder
func formatTopic(topicPattern, state string) string {
	return strings.ReplaceAll(topicPattern, "{state}", state)
}
