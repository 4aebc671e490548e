package producers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
)

// SaramaProducer publishes session events to Kafka, one topic per actor
// kind, keyed by session id so a session stays on one partition.
type SaramaProducer struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

func NewSaramaConfig(cfg *models.Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	if cfg.SessionTimeoutMs > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	} else {
		saramaConfig.Consumer.Group.Session.Timeout = 45 * time.Second
	}
	return saramaConfig
}

func NewSaramaProducer(cfg *models.Config) (*SaramaProducer, error) {
	brokerList := strings.Split(cfg.KafkaBrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Printf("Sarama producer created successfully with brokers %v", brokerList)
	return NewSaramaProducerFrom(producer, cfg.KafkaTopicPrefix), nil
}

// NewSaramaProducerFrom wraps an existing producer.
func NewSaramaProducerFrom(producer sarama.SyncProducer, topicPrefix string) *SaramaProducer {
	return &SaramaProducer{producer: producer, topicPrefix: topicPrefix}
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return fmt.Errorf("sarama producer is not initialized")
	}

	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topicPrefix + topic,
		Key:   sarama.ByteEncoder(sessionKey(msg)),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Printf("Failed to send message to topic %s: %v", s.topicPrefix+topic, err)
		return err
	}
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	err := s.producer.Close()
	s.producer = nil
	return err
}

// sessionKey returns the session id of an encoded event, or nil when the
// message carries none.
func sessionKey(msg []byte) []byte {
	var ev struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil || ev.SessionID == "" {
		return nil
	}
	return []byte(ev.SessionID)
}
