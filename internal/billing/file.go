// internal/billing/file.go
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"billing-chart-workers/internal/models"
)

// FileStore reads a billing export from disk. Files ending in .parquet are
// read as Parquet; anything else as JSON, either a bare array of records or
// an object with a "data" array.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		records []models.Record
		err     error
	)
	if isParquet(s.path) {
		records, err = ReadParquet(s.path)
	} else {
		records, err = readJSON(s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	sortNewestFirst(records)
	return records, nil
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

func readJSON(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Data []models.Record `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return wrapped.Data, nil
}

// BillingRow is the Parquet layout of a billing export. Optional columns
// map to nil pointers and are dropped from the record.
type BillingRow struct {
	PatientID                   *int64   `parquet:"PatientID,optional"`
	PatientName                 *string  `parquet:"PatientName,optional"`
	DateOfBirth                 *string  `parquet:"DateOfBirth,optional"`
	Gender                      *string  `parquet:"Gender,optional"`
	Address                     *string  `parquet:"Address,optional"`
	PhoneNumber                 *string  `parquet:"PhoneNumber,optional"`
	Email                       *string  `parquet:"Email,optional"`
	InsuranceProvider           *string  `parquet:"InsuranceProvider,optional"`
	PolicyNumber                *string  `parquet:"PolicyNumber,optional"`
	BillingNumber               *string  `parquet:"BillingNumber,optional"`
	AdmissionDate               *string  `parquet:"AdmissionDate,optional"`
	DischargeDate               *string  `parquet:"DischargeDate,optional"`
	ServiceDescription          *string  `parquet:"ServiceDescription,optional"`
	TotalCharges                *float64 `parquet:"TotalCharges,optional"`
	InsuranceCoveragePercentage *float64 `parquet:"InsuranceCoveragePercentage,optional"`
	AmountCoveredByInsurance    *float64 `parquet:"AmountCoveredByInsurance,optional"`
	AmountPaid                  *float64 `parquet:"AmountPaid,optional"`
	RunningBalance              *float64 `parquet:"RunningBalance,optional"`
	PaymentStatus               *string  `parquet:"PaymentStatus,optional"`
}

// Record converts the row, omitting null columns.
func (r BillingRow) Record() models.Record {
	rec := models.Record{}
	if r.PatientID != nil {
		rec[models.FieldPatientID] = *r.PatientID
	}
	for field, v := range map[string]*string{
		models.FieldPatientName:        r.PatientName,
		models.FieldDateOfBirth:        r.DateOfBirth,
		models.FieldGender:             r.Gender,
		models.FieldAddress:            r.Address,
		models.FieldPhoneNumber:        r.PhoneNumber,
		models.FieldEmail:              r.Email,
		models.FieldInsuranceProvider:  r.InsuranceProvider,
		models.FieldPolicyNumber:       r.PolicyNumber,
		models.FieldBillingNumber:      r.BillingNumber,
		models.FieldAdmissionDate:      r.AdmissionDate,
		models.FieldDischargeDate:      r.DischargeDate,
		models.FieldServiceDescription: r.ServiceDescription,
		models.FieldPaymentStatus:      r.PaymentStatus,
	} {
		if v != nil {
			rec[field] = *v
		}
	}
	for field, v := range map[string]*float64{
		models.FieldTotalCharges:                r.TotalCharges,
		models.FieldInsuranceCoveragePercentage: r.InsuranceCoveragePercentage,
		models.FieldAmountCoveredByInsurance:    r.AmountCoveredByInsurance,
		models.FieldAmountPaid:                  r.AmountPaid,
		models.FieldRunningBalance:              r.RunningBalance,
	} {
		if v != nil {
			rec[field] = *v
		}
	}
	return rec
}

// RowFromRecord is the inverse of Record for export. Values that do not
// fit a column's type are left null.
func RowFromRecord(rec models.Record) BillingRow {
	str := func(field string) *string {
		if s, ok := rec.String(field); ok {
			return &s
		}
		return nil
	}
	num := func(field string) *float64 {
		if f, ok := rec.Number(field); ok {
			return &f
		}
		return nil
	}

	row := BillingRow{
		PatientName:                 str(models.FieldPatientName),
		DateOfBirth:                 str(models.FieldDateOfBirth),
		Gender:                      str(models.FieldGender),
		Address:                     str(models.FieldAddress),
		PhoneNumber:                 str(models.FieldPhoneNumber),
		Email:                       str(models.FieldEmail),
		InsuranceProvider:           str(models.FieldInsuranceProvider),
		PolicyNumber:                str(models.FieldPolicyNumber),
		BillingNumber:               str(models.FieldBillingNumber),
		AdmissionDate:               str(models.FieldAdmissionDate),
		DischargeDate:               str(models.FieldDischargeDate),
		ServiceDescription:          str(models.FieldServiceDescription),
		TotalCharges:                num(models.FieldTotalCharges),
		InsuranceCoveragePercentage: num(models.FieldInsuranceCoveragePercentage),
		AmountCoveredByInsurance:    num(models.FieldAmountCoveredByInsurance),
		AmountPaid:                  num(models.FieldAmountPaid),
		RunningBalance:              num(models.FieldRunningBalance),
		PaymentStatus:               str(models.FieldPaymentStatus),
	}
	if f, ok := rec.Number(models.FieldPatientID); ok {
		id := int64(f)
		row.PatientID = &id
	}
	return row
}

// ReadParquet loads every row of a Parquet billing export.
func ReadParquet(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[BillingRow](pf)
	defer reader.Close()

	records := make([]models.Record, 0, reader.NumRows())
	buf := make([]BillingRow, 256)
	for {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			records = append(records, row.Record())
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}

// WriteParquet writes records as a Parquet billing export.
func WriteParquet(path string, records []models.Record) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	rows := make([]BillingRow, len(records))
	for i, rec := range records {
		rows[i] = RowFromRecord(rec)
	}

	writer := parquet.NewGenericWriter[BillingRow](out)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return out.Close()
}
