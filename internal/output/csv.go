package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type csvFile struct {
	file    *os.File
	writer  *csv.Writer
	headers []string
}

type CSVOutput struct {
	basePath string
	folder   string
	files    map[string]*csvFile
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csvFile),
	}
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	fullPath, event, err := partition(c.basePath, c.folder, topic, msg)
	if err != nil {
		return err
	}

	f, ok := c.files[fullPath]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		f = &csvFile{file: file, writer: csv.NewWriter(file), headers: headers(event)}
		c.files[fullPath] = f
		if err := f.writer.Write(f.headers); err != nil {
			return err
		}
	}

	row := make([]string, len(f.headers))
	for i, header := range f.headers {
		if value, ok := event[header]; ok {
			row[i] = fmt.Sprintf("%v", value)
		}
	}
	if err := f.writer.Write(row); err != nil {
		return err
	}
	f.writer.Flush()
	return f.writer.Error()
}

func headers(event map[string]interface{}) []string {
	keys := make([]string, 0, len(event))
	for key := range event {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (c *CSVOutput) Close() error {
	var lastErr error
	for key, f := range c.files {
		f.writer.Flush()
		if err := f.writer.Error(); err != nil {
			logClose("csv", key, err)
			lastErr = err
		}
		if err := f.file.Close(); err != nil {
			logClose("csv", key, err)
			lastErr = err
		}
	}
	return lastErr
}
