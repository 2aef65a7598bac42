// Package events publishes check-in notifications for downstream consumers
// such as staff dashboards. Publishing is best effort: the intake flow never
// fails because an event could not be sent.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"patient-intake-server/internal/config"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
)

// TypeCheckInAnalyzed is emitted after a check-in has been analyzed and recorded.
const TypeCheckInAnalyzed = "checkin.analyzed"

// Event is the JSON payload sent on every backend.
type Event struct {
	Type                 string           `json:"type"`
	CheckInID            string           `json:"checkInId"`
	PatientID            string           `json:"patientId"`
	Urgency              models.Urgency   `json:"urgency"`
	Specialty            models.Specialty `json:"specialty"`
	Severity             models.Severity  `json:"severity"`
	TriageRecommendation string           `json:"triageRecommendation"`
	OccurredAt           time.Time        `json:"occurredAt"`
}

// CheckInAnalyzed builds the event for a recorded check-in.
func CheckInAnalyzed(checkIn *models.CheckIn, a *models.Analysis) Event {
	return Event{
		Type:                 TypeCheckInAnalyzed,
		CheckInID:            checkIn.ID,
		PatientID:            checkIn.PatientID,
		Urgency:              checkIn.Urgency,
		Specialty:            a.Specialty,
		Severity:             a.Severity,
		TriageRecommendation: a.TriageRecommendation,
		OccurredAt:           time.Now().UTC(),
	}
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New picks the publisher named by cfg.Backend.
func New(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Noop{}, nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is required for the kafka events backend")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case "sqs":
		if cfg.SQSQueueURL == "" {
			return nil, fmt.Errorf("SQS_QUEUE_URL is required for the sqs events backend")
		}
		return NewSQSPublisher(ctx, cfg.SQSQueueURL, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func encode(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return body, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
