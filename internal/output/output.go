package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/chrisdamba/dinesim/internal/simulator/producers"
	log "github.com/sirupsen/logrus"
)

// Destination receives serialized session events, one topic per actor kind.
type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// New picks the destination configured in cfg. Kafka wins over file outputs;
// with no output path events go to the console.
func New(cfg *models.Config) (Destination, error) {
	if cfg.KafkaEnabled {
		producer, err := producers.NewSaramaProducer(cfg)
		if err != nil {
			return nil, err
		}
		return producer, nil
	}
	local := cfg.OutputDestination == "" || cfg.OutputDestination == "local"

	switch cfg.OutputFormat {
	case "", "console":
		return NewConsoleOutput(nil), nil
	case "json", "csv":
		if cfg.OutputPath == "" {
			return nil, fmt.Errorf("output format %s needs an output path", cfg.OutputFormat)
		}
		if cfg.OutputFormat == "json" {
			return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
		}
		return NewCSVOutput(cfg.OutputPath, cfg.OutputFolder), nil
	case "parquet":
		if local && cfg.OutputPath == "" {
			return nil, fmt.Errorf("output format %s needs an output path", cfg.OutputFormat)
		}
		output, err := NewParquetOutput(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Parquet output: %w", err)
		}
		return output, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
}

// partition returns the directory for a message and its decoded fields.
// Files are split by topic and session.
func partition(basePath, folder, topic string, msg []byte) (string, map[string]interface{}, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return "", nil, err
	}
	sessionID, ok := event["sessionId"].(string)
	if !ok || sessionID == "" {
		return "", nil, fmt.Errorf("event on %s has no session id", topic)
	}
	partitionPath := fmt.Sprintf("session=%s", sessionID)
	return filepath.Join(basePath, folder, topic, partitionPath), event, nil
}

func logClose(kind, key string, err error) {
	log.WithError(err).Warnf("Error closing %s output %s", kind, key)
}
