package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/cloudevents"
	"github.com/wms-platform/warehouse-engine/pkg/kafka"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
	"github.com/wms-platform/warehouse-engine/pkg/metrics"
	"github.com/wms-platform/warehouse-engine/pkg/resilience"
)

// EventPublisher implements the audit sink over Kafka. Events are routed to
// a topic per event family and wrapped in a CloudEvents envelope. The broker
// sits behind a circuit breaker so a dead cluster does not stall operations.
type EventPublisher struct {
	producer     *kafka.Producer
	eventFactory *cloudevents.EventFactory
	breaker      *resilience.CircuitBreaker
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewEventPublisher creates a new Kafka-based event publisher
func NewEventPublisher(
	producer *kafka.Producer,
	eventFactory *cloudevents.EventFactory,
	m *metrics.Metrics,
	logger *logging.Logger,
) *EventPublisher {
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("kafka-publisher"),
		logger.Logger,
	)

	return &EventPublisher{
		producer:     producer,
		eventFactory: eventFactory,
		breaker:      breaker,
		metrics:      m,
		logger:       logger,
	}
}

// Publish publishes a single domain event to Kafka
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	topic := topicFor(event.EventType())
	ce := p.eventFactory.CreateEvent(ctx, event.EventType(), subjectFor(event), event)

	start := time.Now()
	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, ce)
	})
	duration := time.Since(start)

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.EventType(), err == nil, duration)
	}
	p.logger.KafkaPublish(ctx, topic, event.EventType(), err == nil, duration)

	if err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}
	return nil
}

// PublishAll publishes multiple domain events to Kafka
func (p *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// topicFor routes an event type to its topic by family
func topicFor(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "wms.mission."):
		return kafka.Topics.MissionEvents
	case strings.HasPrefix(eventType, "wms.allocation."):
		return kafka.Topics.AllocationEvents
	case strings.HasPrefix(eventType, "wms.count."):
		return kafka.Topics.CountEvents
	default:
		return kafka.Topics.LedgerEvents
	}
}

// subjectFor derives the CloudEvents subject, which doubles as the Kafka
// partition key so events of one entity stay ordered
func subjectFor(event domain.DomainEvent) string {
	switch e := event.(type) {
	case *domain.PalletMovedEvent:
		return "pallet/" + e.PalletLabel
	case *domain.SlotOccupiedEvent:
		return "slot/" + e.SlotCode
	case *domain.SlotFreedEvent:
		return "slot/" + e.SlotCode
	case *domain.MissionCreatedEvent:
		return "mission/" + e.MissionID
	case *domain.MissionAssignedEvent:
		return "mission/" + e.MissionID
	case *domain.MissionCompletedEvent:
		return "mission/" + e.MissionID
	case *domain.MissionRevertedEvent:
		return "mission/" + e.MissionID
	case *domain.MissionDeletedEvent:
		return "mission/" + e.MissionID
	case *domain.OrderAllocatedEvent:
		return "order/" + e.OrderNumber
	case *domain.AllocationRunEvent:
		return "order/" + e.OrderNumber
	case *domain.CountItemRecordedEvent:
		return "count-session/" + e.SessionID
	case *domain.CountUndoneEvent:
		return "count-session/" + e.SessionID
	case *domain.PalletCreatedFromCountEvent:
		return "count-session/" + e.SessionID
	default:
		return "warehouse"
	}
}
