package dihelper

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a CloudEvent with a time-ordered ID, the given type,
// source and JSON data. Metadata entries become extensions.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(newID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// newID generates a UUIDv7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// BeanEventData is the JSON payload of bean lifecycle events. Position is
// the bean's index in the init or close order; run events carry none.
type BeanEventData struct {
	Bean      string `json:"bean"`
	Type      string `json:"type,omitempty"`
	Position  *int   `json:"position,omitempty"`
	Execution string `json:"execution,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DecodeBeanEvent extracts the BeanEventData payload of a bean event.
func DecodeBeanEvent(event cloudevents.Event) (BeanEventData, error) {
	var data BeanEventData
	if err := event.DataAs(&data); err != nil {
		return data, fmt.Errorf("decode bean event: %w", err)
	}
	return data, nil
}
