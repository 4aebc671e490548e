package output

import (
	"os"
	"path/filepath"
)

// JSONOutput writes one JSON document per line.
type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	fullPath, _, err := partition(j.basePath, j.folder, topic, msg)
	if err != nil {
		return err
	}

	file, ok := j.files[fullPath]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fullPath] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	var lastErr error
	for key, file := range j.files {
		if err := file.Close(); err != nil {
			logClose("json", key, err)
			lastErr = err
		}
	}
	return lastErr
}
