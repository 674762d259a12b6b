// internal/models/billing.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Billing record column names, as stored in billing_and_insurance.
const (
	FieldPatientID                   = "PatientID"
	FieldPatientName                 = "PatientName"
	FieldDateOfBirth                 = "DateOfBirth"
	FieldGender                      = "Gender"
	FieldAddress                     = "Address"
	FieldPhoneNumber                 = "PhoneNumber"
	FieldEmail                       = "Email"
	FieldInsuranceProvider           = "InsuranceProvider"
	FieldPolicyNumber                = "PolicyNumber"
	FieldBillingNumber               = "BillingNumber"
	FieldAdmissionDate               = "AdmissionDate"
	FieldDischargeDate               = "DischargeDate"
	FieldServiceDescription          = "ServiceDescription"
	FieldTotalCharges                = "TotalCharges"
	FieldInsuranceCoveragePercentage = "InsuranceCoveragePercentage"
	FieldAmountCoveredByInsurance    = "AmountCoveredByInsurance"
	FieldAmountPaid                  = "AmountPaid"
	FieldRunningBalance              = "RunningBalance"
	FieldPaymentStatus               = "PaymentStatus"
)

// RecordColumns lists the billing columns in table order.
var RecordColumns = []string{
	FieldPatientID,
	FieldPatientName,
	FieldDateOfBirth,
	FieldGender,
	FieldAddress,
	FieldPhoneNumber,
	FieldEmail,
	FieldInsuranceProvider,
	FieldPolicyNumber,
	FieldBillingNumber,
	FieldAdmissionDate,
	FieldDischargeDate,
	FieldServiceDescription,
	FieldTotalCharges,
	FieldInsuranceCoveragePercentage,
	FieldAmountCoveredByInsurance,
	FieldAmountPaid,
	FieldRunningBalance,
	FieldPaymentStatus,
}

// Record is one billing event keyed by column name. Values arrive from
// several stores and from JSON job variables, so they stay loosely typed;
// absent columns are simply missing from the map.
type Record map[string]interface{}

// Number returns the numeric value of a field. Missing, empty, non-numeric
// and non-finite values report false.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns the textual form of a field. Empty values report false.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case time.Time:
		s = t.Format("2006-01-02")
	default:
		s = fmt.Sprint(t)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"01/02/2006",
}

// Date parses a temporal field. Dates are interpreted in UTC.
func (r Record) Date(field string) (time.Time, bool) {
	if t, ok := r[field].(time.Time); ok {
		return t.UTC(), true
	}
	s, ok := r.String(field)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(s)
}

// ParseDate accepts the date layouts produced by the record stores.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
