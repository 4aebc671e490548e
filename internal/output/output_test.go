package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrisdamba/dinesim/internal/cloudwriter"
	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, eventType string, ts int64) []byte {
	t.Helper()
	ev := models.NewEvent(eventType, ts)
	ev.SessionID = "s1"
	ev.CustomerID = 4
	msg, err := json.Marshal(ev)
	require.NoError(t, err)
	return msg
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleOutput(&buf)
	require.NoError(t, c.WriteMessage(models.TopicCustomer, []byte(`{"a":1}`)))
	require.NoError(t, c.Close())
	assert.Equal(t, "[customer_events] {\"a\":1}\n", buf.String())
}

func TestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	j := NewJSONOutput(dir, "events")
	require.NoError(t, j.WriteMessage(models.TopicCustomer, encode(t, models.EventArrived, 3)))
	require.NoError(t, j.WriteMessage(models.TopicCustomer, encode(t, models.EventSeated, 3)))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(filepath.Join(dir, "events", models.TopicCustomer, "session=s1", "data.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var ev models.Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, models.EventSeated, ev.EventType)
}

func TestJSONOutput_RejectsEventWithoutSession(t *testing.T) {
	j := NewJSONOutput(t.TempDir(), "events")
	assert.Error(t, j.WriteMessage(models.TopicCustomer, []byte(`{"timestamp":1}`)))
	assert.Error(t, j.WriteMessage(models.TopicCustomer, []byte(`not json`)))
}

func TestCSVOutput(t *testing.T) {
	dir := t.TempDir()
	c := NewCSVOutput(dir, "events")
	require.NoError(t, c.WriteMessage(models.TopicCook, encode(t, models.EventFoodReady, 21)))
	require.NoError(t, c.Close())

	f, err := os.Open(filepath.Join(dir, "events", models.TopicCook, "session=s1", "data.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	header := rows[0]
	assert.IsIncreasing(t, header)
	for i, name := range header {
		switch name {
		case "timestamp":
			assert.Equal(t, "21", rows[1][i])
		case "eventType":
			assert.Equal(t, models.EventFoodReady, rows[1][i])
		}
	}
}

func TestParquetOutput_Local(t *testing.T) {
	dir := t.TempDir()
	cfg := models.DefaultConfig()
	cfg.OutputPath = dir
	cfg.OutputFormat = "parquet"
	p, err := NewParquetOutput(cfg)
	require.NoError(t, err)

	require.NoError(t, p.WriteMessage(models.TopicWaiter, encode(t, models.EventOrderTaken, 11)))
	require.NoError(t, p.WriteMessage(models.TopicWaiter, encode(t, models.EventOrderSubmitted, 11)))
	require.NoError(t, p.Close())

	info, err := os.Stat(filepath.Join(dir, cfg.OutputFolder, models.TopicWaiter, "session=s1", "data.parquet"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

type memWriter struct {
	buf    *bytes.Buffer
	closed *bool
}

func (m memWriter) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m memWriter) Close() error {
	*m.closed = true
	return nil
}

type memFactory struct {
	objects map[string]*bytes.Buffer
	closed  map[string]*bool
}

func (f *memFactory) NewWriter(bucket, objectPath string) (cloudwriter.CloudWriter, error) {
	key := bucket + "/" + objectPath
	f.objects[key] = &bytes.Buffer{}
	f.closed[key] = new(bool)
	return memWriter{buf: f.objects[key], closed: f.closed[key]}, nil
}

func TestParquetOutput_Cloud(t *testing.T) {
	factory := &memFactory{objects: make(map[string]*bytes.Buffer), closed: make(map[string]*bool)}
	p := NewCloudParquetOutput(factory, "bucket", "events")
	require.NoError(t, p.WriteMessage(models.TopicSession, encode(t, models.EventClosingBell, 180)))
	require.NoError(t, p.Close())

	key := "bucket/events/session_events/session=s1/data.parquet"
	require.Contains(t, factory.objects, key)
	assert.True(t, *factory.closed[key])
	data := factory.objects[key].Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(cfg *models.Config)
		want    interface{}
		wantErr bool
	}{
		{"console by default", func(cfg *models.Config) {}, &ConsoleOutput{}, false},
		{"json", func(cfg *models.Config) { cfg.OutputFormat = "json"; cfg.OutputPath = "out" }, &JSONOutput{}, false},
		{"csv", func(cfg *models.Config) { cfg.OutputFormat = "csv"; cfg.OutputPath = "out" }, &CSVOutput{}, false},
		{"json without path", func(cfg *models.Config) { cfg.OutputFormat = "json" }, nil, true},
		{"unknown format", func(cfg *models.Config) { cfg.OutputFormat = "xml"; cfg.OutputPath = "out" }, nil, true},
		{"unknown cloud", func(cfg *models.Config) {
			cfg.OutputFormat = "parquet"
			cfg.OutputDestination = "cloud"
			cfg.CloudStorage.Provider = "ftp"
		}, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tc.mutate(cfg)
			dest, err := New(cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, dest)
		})
	}
}
