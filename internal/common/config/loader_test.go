// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("GENAI_API_KEY", "secret")

	path := writeConfig(t, `
camunda:
  broker_address: ${ZEEBE_ADDRESS}
record_store:
  backend: file
  file_path: /data/billing.parquet
workers:
  generate-chart-spec:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "secret", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, BackendFile, cfg.RecordStore.Backend)
	assert.Equal(t, 300000, cfg.RecordStore.CacheTTL)
	assert.Equal(t, "billing_and_insurance", cfg.Database.Postgres.Table)
	assert.Equal(t, []string{"Paid", "Pending", "Overdue", "Partial", "Unknown"}, cfg.Chart.PaymentStatuses)
	assert.Equal(t, 5, cfg.Chart.SampleSize)
	assert.Equal(t, 40, cfg.Chart.ExplainMinLength)
	assert.Equal(t, 10, cfg.Chart.RecentRecords)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "billing-chart-workers", cfg.Observability.ServiceName)

	w := GetWorkerConfig(cfg, "generate-chart-spec")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "record_store:\n  backend: file\n  file_path: x.json\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "postgres without host",
			body:    "camunda:\n  broker_address: zeebe:26500\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "file without path",
			body:    "camunda:\n  broker_address: zeebe:26500\nrecord_store:\n  backend: file\n",
			wantErr: "record_store.file_path is required",
		},
		{
			name:    "unknown backend",
			body:    "camunda:\n  broker_address: zeebe:26500\nrecord_store:\n  backend: mongo\n",
			wantErr: `record_store.backend "mongo" is not supported`,
		},
		{
			name: "cache without redis",
			body: "camunda:\n  broker_address: zeebe:26500\nrecord_store:\n  backend: elasticsearch\n  cache_enabled: true\n" +
				"database:\n  elasticsearch:\n    addresses: [http://es:9200]\n",
			wantErr: "database.redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_USER", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"share-chart-report": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "share-chart-report"))
	assert.True(t, IsWorkerEnabled(cfg, "classify-chart-intent"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "share-chart-report").MaxJobsActive)
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "classify-chart-intent").Timeout)
}
