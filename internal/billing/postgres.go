// internal/billing/postgres.go
package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"billing-chart-workers/internal/models"
)

const DefaultTable = "billing_and_insurance"

// PostgresStore reads billing records from a Postgres table. NULL columns
// are left out of the record.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: table}
}

func (s *PostgresStore) query() string {
	return fmt.Sprintf(`SELECT * FROM %s ORDER BY %s DESC NULLS LAST`,
		pq.QuoteIdentifier(s.table), pq.QuoteIdentifier(models.FieldAdmissionDate))
}

func (s *PostgresStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrStoreFailed, s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read columns: %v", ErrStoreFailed, err)
	}

	var records []models.Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", ErrStoreFailed, err)
		}

		record := make(models.Record, len(columns))
		for i, col := range columns {
			if v := columnValue(values[i]); v != nil {
				record[col] = v
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %v", ErrStoreFailed, err)
	}

	return records, nil
}

// columnValue normalizes driver values. NUMERIC arrives as bytes and is
// kept as its decimal text.
func columnValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case time.Time:
		t = t.UTC()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	default:
		return t
	}
}
