package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.PutTrace(ctx, "run-1", []byte(`{"status":"done"}`)))

	raw, err := s.GetTrace(ctx, " run-1 ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"done"}`, string(raw))

	_, err = s.GetTrace(ctx, "run-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.PutTrace(ctx, "  ", nil))
}

func TestObjectKey(t *testing.T) {
	key, err := objectKey("/abc/")
	require.NoError(t, err)
	assert.Equal(t, "traces/abc.json", key)

	_, err = objectKey("")
	assert.Error(t, err)
}

func TestNewS3Store_Validates(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "traces"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
