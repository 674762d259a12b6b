// internal/billing/store_test.go
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/models"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

// countingStore serves fixed records and counts fetches.
type countingStore struct {
	records []models.Record
	err     error
	calls   int
}

func (s *countingStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	s.calls++
	return s.records, s.err
}

// ==========================
// Postgres
// ==========================

func TestPostgresStore_FetchAllRecords(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"PatientID", "Gender", "AdmissionDate", "TotalCharges", "PaymentStatus"}).
		AddRow(int64(7), "Female", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), []byte("1250.50"), "Paid").
		AddRow(int64(8), nil, nil, []byte("80"), nil)
	mock.ExpectQuery(`SELECT * FROM "billing_and_insurance" ORDER BY "AdmissionDate" DESC NULLS LAST`).
		WillReturnRows(rows)

	records, err := NewPostgresStore(db, "").FetchAllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Record{
		"PatientID":     int64(7),
		"Gender":        "Female",
		"AdmissionDate": "2024-03-05",
		"TotalCharges":  "1250.50",
		"PaymentStatus": "Paid",
	}, records[0])
	assert.Equal(t, models.Record{"PatientID": int64(8), "TotalCharges": "80"}, records[1], "NULL columns are omitted")

	charges, ok := records[0].Number(models.FieldTotalCharges)
	assert.True(t, ok)
	assert.Equal(t, 1250.5, charges)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM "billing_export"`).WillReturnError(errors.New("connection reset"))

	records, err := NewPostgresStore(db, "billing_export").FetchAllRecords(context.Background())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnValue(t *testing.T) {
	assert.Nil(t, columnValue(nil))
	assert.Equal(t, "12.5", columnValue([]byte("12.5")))
	assert.Equal(t, "2024-01-02", columnValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-02T10:30:00Z", columnValue(time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, true, columnValue(true))
}

// ==========================
// Elasticsearch
// ==========================

func newSearchClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchStore_FetchAllRecords(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	client := newSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"PatientID": 2, "AdmissionDate": "2024-05-01", "TotalCharges": 900}},
					{"_source": {"PatientID": 1, "AdmissionDate": "2024-04-01", "TotalCharges": 300}}
				]
			}
		}`))
	})

	records, err := NewSearchStore(client, "billing").FetchAllRecords(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/billing/_search", gotPath)
	assert.Contains(t, gotBody["query"], "match_all")
	require.Len(t, records, 2)
	assert.Equal(t, "2024-05-01", records[0]["AdmissionDate"])
	assert.Equal(t, float64(300), records[1]["TotalCharges"])
}

func TestSearchStore_ErrorStatus(t *testing.T) {
	client := newSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := NewSearchStore(client, "").FetchAllRecords(context.Background())
	assert.ErrorIs(t, err, ErrSearchFailed)
}

// ==========================
// Files
// ==========================

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileStore_JSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"PatientID":1,"AdmissionDate":"2024-01-01"},{"PatientID":2,"AdmissionDate":"2024-06-01"},{"PatientID":3}]`},
		{"wrapped", `{"success":true,"data":[{"PatientID":1,"AdmissionDate":"2024-01-01"},{"PatientID":3},{"PatientID":2,"AdmissionDate":"2024-06-01"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewFileStore(writeFile(t, "billing.json", tt.body)).FetchAllRecords(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, float64(2), records[0]["PatientID"], "newest admission first")
			assert.Equal(t, float64(1), records[1]["PatientID"])
			assert.Equal(t, float64(3), records[2]["PatientID"], "undated last")
		})
	}
}

func TestFileStore_Errors(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "missing.json")).FetchAllRecords(context.Background())
	assert.ErrorIs(t, err, ErrStoreFailed)

	_, err = NewFileStore(writeFile(t, "bad.json", "not json")).FetchAllRecords(context.Background())
	assert.ErrorIs(t, err, ErrStoreFailed)
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.parquet")
	in := []models.Record{
		{"PatientID": 10, "Gender": "Male", "AdmissionDate": "2024-02-01", "TotalCharges": 450.25, "PaymentStatus": "Pending"},
		{"PatientID": "11", "InsuranceProvider": "Aetna", "AdmissionDate": "2024-03-01", "AmountPaid": "100"},
	}
	require.NoError(t, WriteParquet(path, in))

	records, err := NewFileStore(path).FetchAllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Record{
		"PatientID":         int64(11),
		"InsuranceProvider": "Aetna",
		"AdmissionDate":     "2024-03-01",
		"AmountPaid":        float64(100),
	}, records[0])
	assert.Equal(t, models.Record{
		"PatientID":     int64(10),
		"Gender":        "Male",
		"AdmissionDate": "2024-02-01",
		"TotalCharges":  450.25,
		"PaymentStatus": "Pending",
	}, records[1])
}

// ==========================
// Cache
// ==========================

func sampleStoreRecords() []models.Record {
	return []models.Record{
		{"PatientID": float64(1), "TotalCharges": float64(100), "PaymentStatus": "Paid"},
		{"PatientID": float64(2), "TotalCharges": float64(250), "PaymentStatus": "Pending"},
	}
}

func TestCachedStore_ReadThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	backing := &countingStore{records: sampleStoreRecords()}
	store := NewCachedStore(backing, rdb, time.Minute, &TestLogger{t: t})
	ctx := context.Background()

	first, err := store.FetchAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backing.calls)
	assert.True(t, mr.Exists(CacheKey))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey))

	second, err := store.FetchAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backing.calls, "second read served from cache")
	assert.Equal(t, first, second)

	require.NoError(t, store.Invalidate(ctx))
	_, err = store.FetchAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)
}

func TestCachedStore_DoesNotCacheEmptySet(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	records, err := NewCachedStore(&countingStore{}, rdb, 0, nil).FetchAllRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, mr.Exists(CacheKey))
}

func TestCachedStore_RedisFailureFallsBack(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	records := sampleStoreRecords()
	data, err := json.Marshal(records)
	require.NoError(t, err)

	redisMock.ExpectGet(CacheKey).SetErr(errors.New("connection refused"))
	redisMock.ExpectSet(CacheKey, data, DefaultCacheTTL).SetErr(errors.New("connection refused"))

	backing := &countingStore{records: records}
	got, err := NewCachedStore(backing, redisClient, 0, &TestLogger{t: t}).FetchAllRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, 1, backing.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_BackingErrorPropagates(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet(CacheKey).RedisNil()

	backing := &countingStore{err: ErrStoreFailed}
	_, err := NewCachedStore(backing, redisClient, 0, nil).FetchAllRecords(context.Background())
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestSample(t *testing.T) {
	records := sampleStoreRecords()
	assert.Nil(t, Sample(records, 0))
	assert.Nil(t, Sample(nil, 3))
	assert.Len(t, Sample(records, 1), 1)
	assert.Len(t, Sample(records, 10), 2)
}
