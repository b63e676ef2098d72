package services

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/atelier-labs/tailor-orders-api/config"
)

// Event types published on order lifecycle changes.
const (
	EventOrderConfirmed      = "order.confirmed"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderCancelled      = "order.cancelled"
	EventOrderDelivered      = "order.delivered"
	EventQCApproved          = "order.qc_approved"
	EventMaterialsApproved   = "order.materials_approved"
	EventCustomerApproved    = "order.customer_approved"
	EventMODone              = "mo.done"
	EventStatusOverridden    = "order.status_overridden"
)

// Event is one order lifecycle notification.
type Event struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"order_id"`
	Reference  string    `json:"reference"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	ActorID    uint      `json:"actor_id"`
	Override   bool      `json:"override,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier publishes order lifecycle events. Implementations must tolerate
// being called after the database transaction has committed; a failed
// publish is logged, never surfaced to the caller.
type Notifier interface {
	Publish(events ...Event)
}

var notifierInstance Notifier

// KafkaNotifier publishes events to a Kafka topic with a sarama sync
// producer. A nil receiver or nil producer disables publishing, so callers
// never need to check whether Kafka is configured.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// InitKafkaNotifier connects the producer and installs it as the global
// notifier. With no brokers configured it installs a disabled notifier.
func InitKafkaNotifier(cfg *config.Config) (Notifier, error) {
	if len(cfg.KafkaBrokers) == 0 {
		notifierInstance = &KafkaNotifier{}
		return notifierInstance, nil
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, saramaCfg)
	if err != nil {
		return nil, err
	}

	notifierInstance = &KafkaNotifier{producer: producer, topic: cfg.KafkaTopic}
	return notifierInstance, nil
}

// NewKafkaNotifier wraps an existing producer (used by tests with
// sarama/mocks).
func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

// GetNotifier returns the installed notifier. Before initialization it is a
// disabled notifier, never nil.
func GetNotifier() Notifier {
	if notifierInstance == nil {
		return &KafkaNotifier{}
	}
	return notifierInstance
}

// SetNotifier replaces the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// Publish sends each event to the topic keyed by order reference, so all
// events of one order land in the same partition.
func (n *KafkaNotifier) Publish(events ...Event) {
	if n == nil || n.producer == nil {
		return
	}
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			config.Logger().Error("failed to marshal event", zap.String("type", event.Type), zap.Error(err))
			continue
		}
		msg := &sarama.ProducerMessage{
			Topic: n.topic,
			Key:   sarama.StringEncoder(event.Reference),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := n.producer.SendMessage(msg); err != nil {
			config.Logger().Error("failed to publish event",
				zap.String("type", event.Type),
				zap.String("reference", event.Reference),
				zap.Error(err))
		}
	}
}

// Close shuts the underlying producer down.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.producer == nil {
		return nil
	}
	return n.producer.Close()
}

// MemoryNotifier records events in memory for test assertions.
type MemoryNotifier struct {
	Events []Event
}

// Publish appends the events to the in-memory log.
func (m *MemoryNotifier) Publish(events ...Event) {
	m.Events = append(m.Events, events...)
}
