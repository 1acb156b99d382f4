package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/movie-ratings-etl/internal/config"
	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces every row of the output tables to Kafka, one topic per
// table. It implements pipeline.Publisher.
type Publisher struct {
	writer      messageWriter
	topicPrefix string
	tablePrefix string
	logger      *slog.Logger
}

// NewPublisher creates a Kafka producer. Topics are named
// KAFKA_TOPIC_PREFIX + table name and created on first write.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              cfg.LoadBatchSize,
	}
	return newPublisher(w, cfg.KafkaTopicPrefix, cfg.TablePrefix, logger)
}

func newPublisher(w messageWriter, topicPrefix, tablePrefix string, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, topicPrefix: topicPrefix, tablePrefix: tablePrefix, logger: logger}
}

func (p *Publisher) Name() string { return "kafka" }

// Publish writes each output table as keyed JSON messages, table by table.
func (p *Publisher) Publish(ctx context.Context, runID string, out domain.Outputs) error {
	for _, t := range out.Tables(p.tablePrefix) {
		if t.Len() == 0 {
			continue
		}
		msgs, err := tableMessages(t, p.topicPrefix, runID)
		if err != nil {
			return err
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
		p.logger.Info("table published", "table", t.Name, "topic", msgs[0].Topic, "messages", len(msgs))
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// tableMessages renders every row of t as a message keyed by the row's key
// columns. Values are JSON objects of column name to cell.
func tableMessages(t domain.Table, topicPrefix, runID string) ([]kafkago.Message, error) {
	topic := topicPrefix + t.Name
	names := t.ColumnNames()
	msgs := make([]kafkago.Message, len(t.Rows))
	for i, row := range t.Rows {
		obj := make(map[string]any, len(names))
		for j, name := range names {
			obj[name] = row[j]
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("serialize %s row %d: %w", t.Name, i, err)
		}
		msgs[i] = kafkago.Message{
			Topic: topic,
			Key:   []byte(t.RowKey(i)),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "table", Value: []byte(t.Name)},
				{Key: "run_id", Value: []byte(runID)},
			},
		}
	}
	return msgs, nil
}
