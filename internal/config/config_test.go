package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: "8080"
  mode: "debug"
database:
  mysql:
    dsn: "root:root@tcp(127.0.0.1:3306)/doc_insight"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.OCR.PollIntervalSeconds)
	assert.Equal(t, 600, cfg.OCR.MaxWaitSeconds)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.Equal(t, 1000, cfg.Chat.SnippetMaxChars)
	assert.Equal(t, "documents", cfg.Elasticsearch.IndexName)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeTempConfig(t, `
ocr:
  base_url: "http://ocr.internal:8866"
  poll_interval_seconds: 2
  max_wait_seconds: 120
chat:
  history_window: 4
  top_k: 3
  snippet_max_chars: 500
elasticsearch:
  index_name: "docs-test"
kafka:
  brokers: "broker:9092"
  ingestion_topic: "ingest"
  notification_topic: "status"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ocr.internal:8866", cfg.OCR.BaseURL)
	assert.Equal(t, 2, cfg.OCR.PollIntervalSeconds)
	assert.Equal(t, 120, cfg.OCR.MaxWaitSeconds)
	assert.Equal(t, 4, cfg.Chat.HistoryWindow)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.Equal(t, 500, cfg.Chat.SnippetMaxChars)
	assert.Equal(t, "docs-test", cfg.Elasticsearch.IndexName)
	assert.Equal(t, "ingest", cfg.Kafka.IngestionTopic)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
