package cloudwriter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubS3 struct {
	puts map[string][]byte
	err  error
}

func (s *stubS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	s.puts[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer_UploadsOnClose(t *testing.T) {
	stub := &stubS3{puts: make(map[string][]byte)}
	w, err := NewS3WriterFactoryWithClient(stub).NewWriter("sessions", "events/cook_events/data.parquet")
	require.NoError(t, err)

	_, err = w.Write([]byte("PAR1"))
	require.NoError(t, err)
	_, err = w.Write([]byte("body"))
	require.NoError(t, err)
	assert.Empty(t, stub.puts)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, []byte("PAR1body"), stub.puts["sessions/events/cook_events/data.parquet"])
	assert.Len(t, stub.puts, 1)

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}

func TestS3Writer_UploadError(t *testing.T) {
	stub := &stubS3{err: errors.New("access denied")}
	w, err := NewS3WriterFactoryWithClient(stub).NewWriter("sessions", "x")
	require.NoError(t, err)
	assert.ErrorContains(t, w.Close(), "access denied")
}

func TestS3WriterFactory_NeedsBucket(t *testing.T) {
	_, err := NewS3WriterFactoryWithClient(&stubS3{}).NewWriter("", "x")
	assert.Error(t, err)
}
