package models

import "time"

// NotificationLevel mirrors the audit severities for user-facing messages.
type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a user-visible message raised by the pipeline.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventKind identifies what a PipelineEvent carries.
type EventKind string

const (
	EventFleetSummary EventKind = "fleet_summary"
	EventInference    EventKind = "inference"
	EventNotification EventKind = "notification"
)

// PipelineEvent is published to the message bus after a pipeline stage
// completes. Exactly one payload field is set, matching Kind.
type PipelineEvent struct {
	Kind         EventKind     `json:"kind"`
	Timestamp    time.Time     `json:"timestamp"`
	UploadID     string        `json:"upload_id,omitempty"`
	Summary      *FleetSummary `json:"summary,omitempty"`
	Inference    *InferenceRun `json:"inference,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}
