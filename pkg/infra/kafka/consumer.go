package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
)

const pollInterval = 500 * time.Millisecond

// Consumer reads repository events from a Kafka topic in batches. Offsets are
// committed explicitly, so unacknowledged records are delivered again after
// a restart or a Rewind.
type Consumer struct {
	consumer *ckafka.Consumer
	pending  []*ckafka.Message
}

var _ interfaces.EventConsumer = (*Consumer)(nil)

// NewConsumer joins groupID and subscribes to topic
func NewConsumer(brokers, groupID, topic string) (*Consumer, error) {
	consumer, err := ckafka.NewConsumer(&ckafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create kafka consumer", goerr.V("brokers", brokers))
	}

	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = consumer.Close()
		return nil, goerr.Wrap(err, "failed to subscribe topic", goerr.V("topic", topic))
	}

	return &Consumer{consumer: consumer}, nil
}

// ReadBatch blocks until a record arrives, then keeps collecting records for
// up to wait or until max records are read.
func (c *Consumer) ReadBatch(ctx context.Context, max int, wait time.Duration) ([]model.QueueRecord, error) {
	c.pending = nil

	for len(c.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := c.consumer.ReadMessage(pollInterval)
		if isTimeout(err) {
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read message")
		}
		c.pending = append(c.pending, msg)
	}

	deadline := time.Now().Add(wait)
	for len(c.pending) < max {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			break
		}
		msg, err := c.consumer.ReadMessage(remaining)
		if isTimeout(err) {
			break
		}
		if err != nil {
			ctxlog.From(ctx).Warn("failed to read message, closing batch early", "error", err)
			break
		}
		c.pending = append(c.pending, msg)
	}

	records := make([]model.QueueRecord, len(c.pending))
	for i, msg := range c.pending {
		records[i] = toRecord(msg)
	}
	return records, nil
}

// Commit acknowledges the records of the last batch
func (c *Consumer) Commit(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	if _, err := c.consumer.CommitOffsets(commitOffsets(c.pending)); err != nil {
		return goerr.Wrap(err, "failed to commit offsets", goerr.V("records", len(c.pending)))
	}
	c.pending = nil
	return nil
}

// Rewind seeks back to the first record of the last batch on every partition
func (c *Consumer) Rewind(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	for _, tp := range rewindOffsets(c.pending) {
		if err := c.consumer.Seek(tp, 0); err != nil {
			return goerr.Wrap(err, "failed to seek partition",
				goerr.V("topic", topicName(tp)),
				goerr.V("partition", tp.Partition),
				goerr.V("offset", int64(tp.Offset)),
			)
		}
	}
	c.pending = nil
	return nil
}

// Close leaves the consumer group
func (c *Consumer) Close() error {
	return c.consumer.Close()
}

func isTimeout(err error) bool {
	var kErr ckafka.Error
	return errors.As(err, &kErr) && kErr.Code() == ckafka.ErrTimedOut
}

func toRecord(msg *ckafka.Message) model.QueueRecord {
	id := ""
	for _, h := range msg.Headers {
		if h.Key == MessageIDHeader {
			id = string(h.Value)
		}
	}
	if id == "" {
		id = fmt.Sprintf("%s[%d]@%d", topicName(msg.TopicPartition), msg.TopicPartition.Partition, msg.TopicPartition.Offset)
	}
	return model.QueueRecord{ID: id, Body: msg.Value}
}

func topicName(tp ckafka.TopicPartition) string {
	if tp.Topic == nil {
		return ""
	}
	return *tp.Topic
}

type partitionKey struct {
	topic     string
	partition int32
}

// commitOffsets returns, per partition, the offset following the last message
func commitOffsets(msgs []*ckafka.Message) []ckafka.TopicPartition {
	return collectOffsets(msgs, func(cur, next ckafka.Offset) bool { return next > cur }, 1)
}

// rewindOffsets returns, per partition, the offset of the first message
func rewindOffsets(msgs []*ckafka.Message) []ckafka.TopicPartition {
	return collectOffsets(msgs, func(cur, next ckafka.Offset) bool { return next < cur }, 0)
}

func collectOffsets(msgs []*ckafka.Message, replace func(cur, next ckafka.Offset) bool, delta ckafka.Offset) []ckafka.TopicPartition {
	offsets := map[partitionKey]ckafka.Offset{}
	var order []partitionKey

	for _, msg := range msgs {
		key := partitionKey{topic: topicName(msg.TopicPartition), partition: msg.TopicPartition.Partition}
		cur, ok := offsets[key]
		if !ok {
			order = append(order, key)
			offsets[key] = msg.TopicPartition.Offset
			continue
		}
		if replace(cur, msg.TopicPartition.Offset) {
			offsets[key] = msg.TopicPartition.Offset
		}
	}

	result := make([]ckafka.TopicPartition, 0, len(order))
	for _, key := range order {
		topic := key.topic
		result = append(result, ckafka.TopicPartition{
			Topic:     &topic,
			Partition: key.partition,
			Offset:    offsets[key] + delta,
		})
	}
	return result
}
