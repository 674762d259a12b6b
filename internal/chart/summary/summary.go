// internal/chart/summary/summary.go
package summary

import (
	"errors"
	"math"
	"sort"
	"time"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/models"
)

var ErrNoData = errors.New("no data available")

const (
	unknownLabel     = "Unknown"
	fallbackColor    = "#6B7280"
	monthlyWindow    = 12
	DefaultRecentMax = 10
)

var statusColors = map[string]string{
	"Paid":    "#10B981",
	"Pending": "#F59E0B",
	"Overdue": "#EF4444",
	"Partial": "#8B5CF6",
	"Unknown": fallbackColor,
}

// Statuses whose running balance counts as pending money.
var pendingStatuses = map[string]bool{"Pending": true, "Overdue": true}

type BillingSummary struct {
	TotalRecords           int              `json:"totalRecords"`
	TotalPatients          int              `json:"totalPatients"`
	TotalRevenue           float64          `json:"totalRevenue"`
	TotalPaid              float64          `json:"totalPaid"`
	TotalOutstanding       float64          `json:"totalOutstanding"`
	PendingAmount          float64          `json:"pendingAmount"`
	AverageCharges         float64          `json:"averageCharges"`
	AverageCoverage        float64          `json:"averageCoverage"`
	LatestAdmissionDate    string           `json:"latestAdmissionDate,omitempty"`
	OldestAdmissionDate    string           `json:"oldestAdmissionDate,omitempty"`
	PaymentStatusBreakdown map[string]int   `json:"paymentStatusBreakdown"`
	InsuranceProviders     map[string]int   `json:"insuranceProviders"`
	GenderDistribution     map[string]int   `json:"genderDistribution"`
	ServiceTypes           map[string]int   `json:"serviceTypes"`
	StatusLegend           []LegendEntry    `json:"statusLegend"`
	MonthlyRevenue         []MonthlyRevenue `json:"monthlyRevenue"`
	RecentRecords          []models.Record  `json:"recentRecords"`
}

type LegendEntry struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
}

// Build summarizes the complete record set. statuses is the configured
// payment-status vocabulary and orders the legend.
func Build(records []models.Record, statuses []string, recentLimit int) (*BillingSummary, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	if len(statuses) == 0 {
		statuses = catalog.DefaultPaymentStatuses
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentMax
	}

	s := &BillingSummary{
		TotalRecords:           len(records),
		PaymentStatusBreakdown: map[string]int{},
		InsuranceProviders:     map[string]int{},
		GenderDistribution:     map[string]int{},
		ServiceTypes:           map[string]int{},
	}

	patients := map[string]bool{}
	monthly := map[string]float64{}
	var revenue, paid, outstanding, pending, coverage float64
	var latest, oldest time.Time

	for _, r := range records {
		if id, ok := r.String(models.FieldPatientID); ok {
			patients[id] = true
		}

		charges, hasCharges := r.Number(models.FieldTotalCharges)
		revenue += charges
		paid += number(r, models.FieldAmountPaid)
		balance := number(r, models.FieldRunningBalance)
		outstanding += balance
		coverage += number(r, models.FieldInsuranceCoveragePercentage)

		status := label(r, models.FieldPaymentStatus)
		s.PaymentStatusBreakdown[status]++
		if pendingStatuses[status] {
			pending += balance
		}
		s.InsuranceProviders[label(r, models.FieldInsuranceProvider)]++
		s.GenderDistribution[label(r, models.FieldGender)]++
		s.ServiceTypes[label(r, models.FieldServiceDescription)]++

		if t, ok := r.Date(models.FieldAdmissionDate); ok {
			if latest.IsZero() || t.After(latest) {
				latest = t
			}
			if oldest.IsZero() || t.Before(oldest) {
				oldest = t
			}
			if hasCharges && charges != 0 {
				monthly[t.Format("2006-01")] += charges
			}
		}
	}

	n := float64(len(records))
	s.TotalPatients = len(patients)
	s.TotalRevenue = math.Round(revenue)
	s.TotalPaid = math.Round(paid)
	s.TotalOutstanding = math.Round(outstanding)
	s.PendingAmount = math.Round(pending)
	s.AverageCharges = math.Round(revenue / n)
	s.AverageCoverage = math.Round(coverage/n*100) / 100
	if !latest.IsZero() {
		s.LatestAdmissionDate = latest.Format("2006-01-02")
		s.OldestAdmissionDate = oldest.Format("2006-01-02")
	}

	s.StatusLegend = legend(s.PaymentStatusBreakdown, statuses)
	s.MonthlyRevenue = monthlySeries(monthly)
	s.RecentRecords = recent(records, recentLimit)
	return s, nil
}

func number(r models.Record, field string) float64 {
	v, _ := r.Number(field)
	return v
}

func label(r models.Record, field string) string {
	if s, ok := r.String(field); ok {
		return s
	}
	return unknownLabel
}

func legend(counts map[string]int, statuses []string) []LegendEntry {
	var out []LegendEntry
	seen := map[string]bool{}
	for _, status := range statuses {
		seen[status] = true
		if c, ok := counts[status]; ok {
			out = append(out, LegendEntry{Label: status, Value: c, Color: colorFor(status)})
		}
	}

	var extra []string
	for status := range counts {
		if !seen[status] {
			extra = append(extra, status)
		}
	}
	sort.Strings(extra)
	for _, status := range extra {
		out = append(out, LegendEntry{Label: status, Value: counts[status], Color: colorFor(status)})
	}
	return out
}

func colorFor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return fallbackColor
}

func monthlySeries(monthly map[string]float64) []MonthlyRevenue {
	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > monthlyWindow {
		months = months[len(months)-monthlyWindow:]
	}

	out := make([]MonthlyRevenue, 0, len(months))
	for _, m := range months {
		lbl := m
		if t, err := time.Parse("2006-01", m); err == nil {
			lbl = t.Format("Jan 2006")
		}
		out = append(out, MonthlyRevenue{Month: m, Label: lbl, Revenue: math.Round(monthly[m])})
	}
	return out
}

// recent returns the newest records by admission date; undated records
// sort last and ties keep input order.
func recent(records []models.Record, limit int) []models.Record {
	sorted := append([]models.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := sorted[i].Date(models.FieldAdmissionDate)
		tj, okJ := sorted[j].Date(models.FieldAdmissionDate)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
