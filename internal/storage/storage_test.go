package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
)

func TestLocalPutGetList(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	require.NoError(t, store.PutObject(ctx, "analytics_sales_daily_2025-12-15_00-00-00.xlsx", []byte("one")))
	require.NoError(t, store.PutObject(ctx, "analytics_stock_daily_2025-12-15_00-00-00.xlsx", []byte("two")))

	data, err := store.GetObject(ctx, "analytics_sales_daily_2025-12-15_00-00-00.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	objects, err := store.ListObjects(ctx, "analytics_sales_")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "analytics_sales_daily_2025-12-15_00-00-00.xlsx", objects[0].Key)

	all, err := store.ListObjects(ctx, "")
	require.NoError(t, err)
	keys := make([]string, 0, len(all))
	for _, o := range all {
		keys = append(keys, o.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"analytics_sales_daily_2025-12-15_00-00-00.xlsx",
		"analytics_stock_daily_2025-12-15_00-00-00.xlsx",
	}, keys)
}

func TestLocalMissingObject(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetObject(context.Background(), "missing.xlsx")
	require.Error(t, err)
}

func TestLocalCancelledContext(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, errors.Is(store.PutObject(ctx, "a", nil), context.Canceled))
}

func TestNewLocalRequiresDir(t *testing.T) {
	_, err := NewLocal("  ")
	assert.Error(t, err)
}

func TestS3ConfigValidation(t *testing.T) {
	_, err := NewSevallaClient(S3Config{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewSevallaClient(S3Config{Endpoint: "s3.example.com"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioClient(context.Background(), S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}

func TestS3ConfigEndpointURL(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", S3Config{Endpoint: "s3.example.com", UseSSL: true}.endpointURL())
	assert.Equal(t, "http://s3.example.com", S3Config{Endpoint: "s3.example.com"}.endpointURL())
	assert.Equal(t, "http://localhost:9000", S3Config{Endpoint: "http://localhost:9000", UseSSL: true}.endpointURL())
	assert.Equal(t, "us-east-1", S3Config{}.region())
	assert.Equal(t, "eu-west-3", S3Config{Region: " eu-west-3 "}.region())
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(context.Background(), config.ReportConfig{Storage: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, store)

	_, err = New(context.Background(), config.ReportConfig{Storage: "ftp"})
	assert.ErrorContains(t, err, "ftp")
}
