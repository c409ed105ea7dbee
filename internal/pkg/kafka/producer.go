package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/course-import/internal/entity"
)

type Producer interface {
	SendImportEvent(ctx context.Context, event entity.ImportEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a mock producer when no brokers are configured or the
// first broker cannot be reached, so imports keep working without Kafka.
func NewProducer(brokers, topic string) Producer {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		logrus.Info("Kafka brokers not configured, import events will only be logged")
		return &mockProducer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logrus.Infof("Kafka producer configured for brokers: %s", brokers)

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", addrs[0])
	if err != nil {
		logrus.Warnf("Kafka connection failed: %v", err)
		logrus.Warn("Using mock producer instead")
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.Infof("Could not create topic (might already exist): %v", err)
	} else {
		logrus.Infof("Created topic: %s", topic)
	}

	logrus.Infof("Connected to Kafka at %s", brokers)
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) SendImportEvent(ctx context.Context, event entity.ImportEvent) error {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SourceURL),
		Value: messageBytes,
		Time:  event.CreatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "event_id": event.ID}).Debug("Import event sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Mock producer для работы без Kafka
type mockProducer struct{}

func (m *mockProducer) SendImportEvent(ctx context.Context, event entity.ImportEvent) error {
	logrus.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"url":       event.SourceURL,
		"status":    event.Status,
		"published": event.Published,
		"failed":    event.Failed,
	}).Debug("MOCK: import event")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
