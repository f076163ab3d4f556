package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

// KafkaSink writes one message per instrument per tick to the tick topic
// and one message per alert to the alert topic. Messages are keyed by
// symbol so each instrument stays on one partition.
type KafkaSink struct {
	logger     *zap.Logger
	writer     KafkaWriter
	tickTopic  string
	alertTopic string
	seq        *sequencer
}

func NewKafkaSink(logger *zap.Logger, writer KafkaWriter, tickTopic, alertTopic string) *KafkaSink {
	return &KafkaSink{
		logger:     logger,
		writer:     writer,
		tickTopic:  tickTopic,
		alertTopic: alertTopic,
		seq:        newSequencer(),
	}
}

// NewKafkaWriter builds a batching writer without a default topic; every
// message names its own.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Handle(ctx context.Context, evt hub.Event) error {
	var msgs []kafka.Message

	switch evt.Name {
	case protocol.EventTick:
		snap, ok := evt.Payload.(models.Snapshot)
		if !ok {
			return fmt.Errorf("kafka sink: unexpected tick payload %T", evt.Payload)
		}
		for _, u := range k.seq.updates(snap) {
			payload, err := json.Marshal(u)
			if err != nil {
				k.logger.Error("JSON Marshal Error", zap.Error(err))
				continue
			}
			msgs = append(msgs, kafka.Message{
				Topic:   k.tickTopic,
				Key:     []byte(u.Symbol),
				Value:   payload,
				Headers: []kafka.Header{{Key: "event", Value: []byte(evt.Name)}},
			})
		}

	case protocol.EventAlert:
		alert, ok := evt.Payload.(models.Alert)
		if !ok {
			return fmt.Errorf("kafka sink: unexpected alert payload %T", evt.Payload)
		}
		payload, err := json.Marshal(alert)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Topic:   k.alertTopic,
			Key:     []byte(alert.Symbol),
			Value:   payload,
			Headers: []kafka.Header{{Key: "event", Value: []byte(evt.Name)}},
		})

	default:
		return nil
	}

	if len(msgs) == 0 {
		return nil
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	k.logger.Debug("Sent updates", zap.String("event", evt.Name), zap.Int("messages", len(msgs)))
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
