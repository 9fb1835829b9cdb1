package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/infra/kafka"
	"github.com/urfave/cli/v3"
)

// Kafka holds queue configuration shared by ingress and worker
type Kafka struct {
	Brokers string
	Topic   string
	GroupID string
}

// Flags returns CLI flags for Kafka configuration
func (c *Kafka) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "kafka-brokers",
			Usage:       "Comma separated Kafka bootstrap servers",
			Destination: &c.Brokers,
			Sources:     cli.EnvVars("REFLOW_KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:        "kafka-topic",
			Usage:       "Kafka topic of repository events",
			Value:       "reflow-events",
			Destination: &c.Topic,
			Sources:     cli.EnvVars("REFLOW_KAFKA_TOPIC"),
		},
		&cli.StringFlag{
			Name:        "kafka-group-id",
			Usage:       "Kafka consumer group of workers",
			Value:       "reflow-worker",
			Destination: &c.GroupID,
			Sources:     cli.EnvVars("REFLOW_KAFKA_GROUP_ID"),
		},
	}
}

// Enabled reports whether brokers are configured
func (c *Kafka) Enabled() bool {
	return c.Brokers != ""
}

// NewPublisher creates a publisher for the events topic
func (c *Kafka) NewPublisher() (*kafka.Publisher, error) {
	if !c.Enabled() {
		return nil, goerr.New("kafka-brokers is not configured")
	}
	return kafka.NewPublisher(c.Brokers, c.Topic)
}

// NewConsumer creates a consumer of the events topic
func (c *Kafka) NewConsumer() (*kafka.Consumer, error) {
	if !c.Enabled() {
		return nil, goerr.New("kafka-brokers is not configured")
	}
	return kafka.NewConsumer(c.Brokers, c.GroupID, c.Topic)
}
