package producers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaramaProducer_WriteMessage(t *testing.T) {
	cfg := models.DefaultConfig()
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(cfg))
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "dinesim.cook_events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "s1" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSaramaProducerFrom(mock, cfg.KafkaTopicPrefix)
	require.NoError(t, p.WriteMessage(models.TopicCook, []byte(`{"sessionId":"s1","eventType":"food_ready"}`)))
	assert.ErrorIs(t, p.WriteMessage(models.TopicCook, []byte(`{}`)), sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
	assert.Error(t, p.WriteMessage(models.TopicCook, []byte(`{}`)))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, []byte("abc"), sessionKey([]byte(`{"sessionId":"abc","timestamp":3}`)))
	assert.Nil(t, sessionKey([]byte(`{"timestamp":3}`)))
	assert.Nil(t, sessionKey([]byte(`not json`)))

	// field order and escaped quotes do not matter
	assert.Equal(t, []byte(`a"b`), sessionKey([]byte(`{"timestamp":3,"sessionId":"a\"b"}`)))
	ev := models.NewEvent(models.EventSeated, 12)
	ev.SessionID = `s"1`
	msg, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte(`s"1`), sessionKey(msg))
}
