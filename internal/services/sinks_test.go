package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"trustcast/internal/models"
)

func TestChannelSink_DropsWhenFull(t *testing.T) {
	ch := make(chan *models.PipelineEvent, 1)
	sink := NewChannelSink(ch, zerolog.Nop())
	sink.timeout = 10 * time.Millisecond

	sink.Publish(&models.PipelineEvent{Kind: models.EventFleetSummary})
	sink.Publish(&models.PipelineEvent{Kind: models.EventNotification})

	assert.Len(t, ch, 1)
	assert.Equal(t, models.EventFleetSummary, (<-ch).Kind)
}
