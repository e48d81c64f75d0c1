package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcast/internal/models"
)

func newTestPublisher(client *fakeClient) *Publisher {
	return NewPublisher(client, PublisherConfig{
		FleetSummaryTopic:    "trust/fleet/summary",
		InferenceResultTopic: "trust/inference/{state}",
		NotificationTopic:    "trust/notifications",
	}, make(chan *models.PipelineEvent, 4), zerolog.Nop())
}

func TestFormatTopic(t *testing.T) {
	assert.Equal(t, "trust/inference/failed", formatTopic("trust/inference/{state}", "failed"))
	assert.Equal(t, "static/topic", formatTopic("static/topic", "succeeded"))
}

func TestPublisher_TopicPerKind(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	events := []*models.PipelineEvent{
		{Kind: models.EventFleetSummary, Summary: &models.FleetSummary{Total: 3}},
		{Kind: models.EventInference, Inference: &models.InferenceRun{State: models.InferenceSucceeded}},
		{Kind: models.EventNotification, Notification: &models.Notification{Level: models.NotifyInfo, Message: "ok"}},
	}
	for _, e := range events {
		require.NoError(t, p.publish(e))
	}

	msgs := client.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "trust/fleet/summary", msgs[0].topic)
	assert.Equal(t, "trust/inference/succeeded", msgs[1].topic)
	assert.Equal(t, "trust/notifications", msgs[2].topic)

	var decoded models.PipelineEvent
	require.NoError(t, json.Unmarshal(msgs[0].payload, &decoded))
	assert.Equal(t, models.EventFleetSummary, decoded.Kind)
	require.NotNil(t, decoded.Summary)
	assert.Equal(t, 3, decoded.Summary.Total)
}

func TestPublisher_UnknownKind(t *testing.T) {
	p := newTestPublisher(&fakeClient{})
	err := p.publish(&models.PipelineEvent{Kind: "mystery"})
	assert.Error(t, err)
}

func TestPublisher_BrokerError(t *testing.T) {
	p := newTestPublisher(&fakeClient{publishErr: errors.New("not connected")})
	err := p.publish(&models.PipelineEvent{Kind: models.EventNotification})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestPublisher_StartDrainsChannel(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	p.EventChan <- &models.PipelineEvent{Kind: models.EventFleetSummary}
	p.EventChan <- &models.PipelineEvent{Kind: models.EventNotification}

	assert.Eventually(t, func() bool { return len(client.messages()) == 2 }, time.Second, 10*time.Millisecond)

	close(p.EventChan)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after channel close")
	}
}
