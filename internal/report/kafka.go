package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the slice of kafka.Writer the sink needs; tests swap in
// a recorder.
type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// KafkaSink publishes report events as JSON to an audit topic, keyed by
// run ID so one batch stays in one partition.
type KafkaSink struct {
	writer messageWriter
	chain  *Chain
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
		chain: NewChain(),
	}
}

func (s *KafkaSink) Publish(ctx context.Context, ev Event) error {
	ev.Message = s.chain.Apply(ev.Message)
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal report event: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   ev.RunID[:],
		Value: payload,
		Time:  ev.Time,
	})
	if err != nil {
		return fmt.Errorf("publish report event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ Sink = (*KafkaSink)(nil)
