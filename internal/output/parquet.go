package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/chrisdamba/dinesim/internal/cloudwriter"
	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetOutput keeps one parquet writer per topic and session. With a cloud
// destination the finished files are uploaded on Close.
type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewParquetOutput(cfg *models.Config) (*ParquetOutput, error) {
	p := &ParquetOutput{
		basePath: cfg.OutputPath,
		folder:   cfg.OutputFolder,
		writers:  make(map[string]*writer.ParquetWriter),
		files:    make(map[string]source.ParquetFile),
	}

	if cfg.OutputDestination != "" && cfg.OutputDestination != "local" {
		var factory cloudwriter.CloudWriterFactory
		var err error

		switch cfg.CloudStorage.Provider {
		case "s3":
			factory, err = cloudwriter.NewS3WriterFactory(cfg.CloudStorage.Region)
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		p.cloudWriterFactory = factory
		p.cloudBucketName = cfg.CloudStorage.BucketName
		return p, nil
	}

	// clean up existing .parquet files
	p.cleanup()
	return p, nil
}

// NewCloudParquetOutput writes through factory instead of the local disk.
func NewCloudParquetOutput(factory cloudwriter.CloudWriterFactory, bucket, folder string) *ParquetOutput {
	return &ParquetOutput{
		folder:             folder,
		writers:            make(map[string]*writer.ParquetWriter),
		files:              make(map[string]source.ParquetFile),
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	fullPath, _, err := partition(p.basePath, p.folder, topic, msg)
	if err != nil {
		return err
	}
	var event models.Event
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	pw, ok := p.writers[fullPath]
	if !ok {
		pw, err = p.createNewWriter(fullPath)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}
	if err := pw.Write(event); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(fullPath string) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	var err error
	if p.cloudWriterFactory != nil {
		objectPath := filepath.ToSlash(filepath.Join(fullPath, "data.parquet"))
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewParquetWriter(fw, new(models.Event), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	p.writers[fullPath] = pw
	p.files[fullPath] = fw
	return pw, nil
}

func (p *ParquetOutput) cleanup() {
	fullPath := filepath.Join(p.basePath, p.folder)
	err := filepath.Walk(fullPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".parquet" {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Error cleaning up Parquet files: %v", err)
	}
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			logClose("parquet", key, err)
		}
		if f, ok := p.files[key]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
				logClose("parquet", key, err)
			}
		}
	}
	p.writers = make(map[string]*writer.ParquetWriter)
	p.files = make(map[string]source.ParquetFile)
	return lastErr
}

// CloudParquetFile adapts a cloud writer to the parquet file interface. It
// only supports sequential writes.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
