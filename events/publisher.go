package events

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultTopic = "loan-events"

type Type string

const (
	LoanIssued   Type = "loan.issued"
	LoanReturned Type = "loan.returned"
)

type LoanEvent struct {
	Type       Type      `json:"type"`
	LoanID     string    `json:"loanId"`
	ItemID     string    `json:"itemId"`
	BorrowerID string    `json:"borrowerId"`
	OperatorID string    `json:"operatorId"`
	TicketCode string    `json:"ticketCode"`
	At         time.Time `json:"at"`
}

// Publisher announces committed loan changes. Publishing happens after the
// database commit, so a failure here never undoes a loan.
type Publisher interface {
	Publish(ctx context.Context, ev LoanEvent) error
	Close() error
}

type Config struct {
	Addrs []string
	Topic string `default:"loan-events"`
}

func NewProducer(addrs []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	return sarama.NewSyncProducer(addrs, cfg)
}

// New returns a Kafka publisher, or Nop when no brokers are configured.
func New(cfg Config, log *zap.Logger) (Publisher, error) {
	if len(cfg.Addrs) == 0 {
		log.Info("kafka disabled, loan events are not published")
		return Nop{}, nil
	}
	p, err := NewProducer(cfg.Addrs)
	if err != nil {
		return nil, errors.Wrap(err, "kafka producer")
	}
	return NewKafkaPublisher(p, cfg.Topic, log), nil
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafkaPublisher(p sarama.SyncProducer, topic string, log *zap.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: p, topic: topic, log: log.Named("kafka")}
}

func (k *KafkaPublisher) Publish(_ context.Context, ev LoanEvent) error {
	b, err := jsoniter.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.LoanID),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return errors.Wrap(err, "send event")
	}
	k.log.Debug("event published",
		zap.String("type", string(ev.Type)),
		zap.String("loan_id", ev.LoanID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (k *KafkaPublisher) Close() error { return k.producer.Close() }

type Nop struct{}

func (Nop) Publish(context.Context, LoanEvent) error { return nil }
func (Nop) Close() error                             { return nil }
