package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

// SaramaProducer publishes through a sarama SyncProducer.
type SaramaProducer struct {
	producer sarama.SyncProducer
}

func NewSaramaProducer(brokers []string) (*SaramaProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, SaramaConfig())
	if err != nil {
		return nil, err
	}
	return WrapSyncProducer(producer), nil
}

// SaramaConfig waits for every in-sync replica and hashes keys to
// partitions, so one owner's events stay ordered.
func SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func WrapSyncProducer(p sarama.SyncProducer) *SaramaProducer {
	return &SaramaProducer{producer: p}
}

// Publish blocks until the broker acknowledges. The context is not
// consulted: sarama's SyncProducer has its own timeouts.
func (p *SaramaProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}
