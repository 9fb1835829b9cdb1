package kafka

import (
	"context"
	"encoding/json"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// MessageIDHeader carries a unique id of every published message
const MessageIDHeader = "reflow-message-id"

// Publisher publishes repository events to a Kafka topic
type Publisher struct {
	producer *ckafka.Producer
	topic    string
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

// NewPublisher creates an idempotent producer for topic
func NewPublisher(brokers, topic string) (*Publisher, error) {
	producer, err := ckafka.NewProducer(&ckafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"enable.idempotence": true,
		"acks":               "all",
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create kafka producer", goerr.V("brokers", brokers))
	}

	return &Publisher{producer: producer, topic: topic}, nil
}

// Publish sends event and waits for the broker acknowledgement. The event id
// is used as message key so deliveries of the same webhook share a partition.
func (p *Publisher) Publish(ctx context.Context, event *model.RepositoryEvent) error {
	msg, err := newMessage(p.topic, event)
	if err != nil {
		return err
	}

	deliveryChan := make(chan ckafka.Event, 1)
	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return goerr.Wrap(err, "failed to produce message", goerr.V("topic", p.topic), goerr.V("event_id", event.ID))
	}

	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "cancelled while waiting for delivery", goerr.V("event_id", event.ID))
	case e := <-deliveryChan:
		delivered, ok := e.(*ckafka.Message)
		if !ok {
			return goerr.New("unexpected delivery event", goerr.V("event", e.String()))
		}
		if delivered.TopicPartition.Error != nil {
			return goerr.Wrap(delivered.TopicPartition.Error, "message delivery failed",
				goerr.V("topic", p.topic),
				goerr.V("event_id", event.ID),
			)
		}
	}

	return nil
}

// Close flushes outstanding messages and closes the producer
func (p *Publisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}

func newMessage(topic string, event *model.RepositoryEvent) (*ckafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal event", goerr.V("event_id", event.ID))
	}

	return &ckafka.Message{
		TopicPartition: ckafka.TopicPartition{Topic: &topic, Partition: ckafka.PartitionAny},
		Key:            []byte(event.ID),
		Value:          body,
		Headers: []ckafka.Header{
			{Key: MessageIDHeader, Value: []byte(uuid.NewString())},
		},
	}, nil
}
