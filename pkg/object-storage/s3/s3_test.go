package s3_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/pkg/object-storage/s3"
	"github.com/tablehub/tablehub/pkg/testutils"
)

func newClient(t *testing.T) *s3.S3 {
	testutils.LoadEnvOrPanic()
	if os.Getenv("TEST_TABLEHUB_S3_BUCKET") == "" {
		t.Skip("TEST_TABLEHUB_S3_BUCKET is not set")
	}
	cli, err := s3.NewS3Client(
		os.Getenv("TEST_TABLEHUB_S3_ENDPOINT"),
		os.Getenv("TEST_TABLEHUB_S3_REGION"),
		os.Getenv("TEST_TABLEHUB_S3_BUCKET"),
		os.Getenv("TEST_TABLEHUB_S3_ACCESS_KEY"),
		os.Getenv("TEST_TABLEHUB_S3_SECRET_KEY"),
		s3.WithPathStyle(os.Getenv("TEST_TABLEHUB_S3_PATH_STYLE") == "true"),
	)
	require.NoError(t, err)
	return cli
}

func TestUploadAndGet(t *testing.T) {
	cli := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	key := "/tests/schema-export.json"
	body := []byte(`{"schema":{"name":"test"}}`)
	require.NoError(t, cli.Upload(ctx, key, "application/json", body))

	got, err := cli.GetObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	url, err := cli.GenGetObjectPreSignURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	require.NoError(t, cli.Delete(ctx, key))
}
