// internal/chart/catalog/catalog.go
package catalog

import (
	"sort"

	"billing-chart-workers/internal/models"
)

type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindTemporal    Kind = "temporal"
	KindText        Kind = "text"
)

// DefaultPaymentStatuses is the unified status vocabulary used by both the
// catalog and the dashboard legend.
var DefaultPaymentStatuses = []string{"Paid", "Pending", "Overdue", "Partial", "Unknown"}

type FieldDescriptor struct {
	Name         string               `json:"name"`
	DisplayName  string               `json:"displayName"`
	Kind         Kind                 `json:"kind"`
	Aggregations []models.Aggregation `json:"aggregations,omitempty"`
	Values       []string             `json:"values,omitempty"`
}

// Measurable reports whether the field can be the aggregated data field.
func (d FieldDescriptor) Measurable() bool {
	return d.Kind == KindNumeric && len(d.Aggregations) > 0
}

// Groupable reports whether records can be bucketed by the field.
func (d FieldDescriptor) Groupable() bool {
	return d.Kind == KindCategorical || d.Kind == KindTemporal
}

func (d FieldDescriptor) Supports(agg models.Aggregation) bool {
	for _, a := range d.Aggregations {
		if a == agg {
			return true
		}
	}
	return false
}

// Catalog is an immutable registry of known billing fields.
type Catalog struct {
	fields map[string]FieldDescriptor
	order  []string
}

var (
	monetaryAggregations = []models.Aggregation{
		models.AggregationSum,
		models.AggregationCount,
		models.AggregationAverage,
		models.AggregationMax,
		models.AggregationMin,
	}
	percentageAggregations = []models.Aggregation{
		models.AggregationAverage,
		models.AggregationMax,
		models.AggregationMin,
		models.AggregationCount,
	}
	identifierAggregations = []models.Aggregation{
		models.AggregationCount,
	}
)

// New builds the billing catalog. An empty status list selects
// DefaultPaymentStatuses.
func New(paymentStatuses []string) *Catalog {
	if len(paymentStatuses) == 0 {
		paymentStatuses = DefaultPaymentStatuses
	}
	statuses := append([]string(nil), paymentStatuses...)

	descriptors := []FieldDescriptor{
		{Name: models.FieldPatientID, DisplayName: "Patient Count", Kind: KindNumeric, Aggregations: identifierAggregations},
		{Name: models.FieldPatientName, DisplayName: "Patient Name", Kind: KindText},
		{Name: models.FieldDateOfBirth, DisplayName: "Date of Birth", Kind: KindTemporal},
		{Name: models.FieldGender, DisplayName: "Gender", Kind: KindCategorical, Values: []string{"Male", "Female", "Other"}},
		{Name: models.FieldAddress, DisplayName: "Address", Kind: KindText},
		{Name: models.FieldPhoneNumber, DisplayName: "Phone Number", Kind: KindText},
		{Name: models.FieldEmail, DisplayName: "Email", Kind: KindText},
		{Name: models.FieldInsuranceProvider, DisplayName: "Insurance Provider", Kind: KindCategorical},
		{Name: models.FieldPolicyNumber, DisplayName: "Policy Count", Kind: KindNumeric, Aggregations: identifierAggregations},
		{Name: models.FieldBillingNumber, DisplayName: "Billing Number", Kind: KindText},
		{Name: models.FieldAdmissionDate, DisplayName: "Admission Date", Kind: KindTemporal},
		{Name: models.FieldDischargeDate, DisplayName: "Discharge Date", Kind: KindTemporal},
		{Name: models.FieldServiceDescription, DisplayName: "Service Type", Kind: KindCategorical},
		{Name: models.FieldTotalCharges, DisplayName: "Total Charges", Kind: KindNumeric, Aggregations: monetaryAggregations},
		{Name: models.FieldInsuranceCoveragePercentage, DisplayName: "Insurance Coverage Percentage", Kind: KindNumeric, Aggregations: percentageAggregations},
		{Name: models.FieldAmountCoveredByInsurance, DisplayName: "Amount Covered by Insurance", Kind: KindNumeric, Aggregations: monetaryAggregations},
		{Name: models.FieldAmountPaid, DisplayName: "Amount Paid", Kind: KindNumeric, Aggregations: monetaryAggregations},
		{Name: models.FieldRunningBalance, DisplayName: "Outstanding Balance", Kind: KindNumeric, Aggregations: monetaryAggregations},
		{Name: models.FieldPaymentStatus, DisplayName: "Payment Status", Kind: KindCategorical, Values: statuses},
	}

	c := &Catalog{fields: make(map[string]FieldDescriptor, len(descriptors))}
	for _, d := range descriptors {
		c.fields[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return c
}

var defaultCatalog = New(nil)

// Default returns the catalog built with the default status vocabulary.
func Default() *Catalog {
	return defaultCatalog
}

// Describe looks a field up by its exact column name.
func (c *Catalog) Describe(fieldName string) (FieldDescriptor, bool) {
	d, ok := c.fields[fieldName]
	if !ok {
		return FieldDescriptor{}, false
	}
	return copyDescriptor(d), true
}

func (c *Catalog) SupportsAggregation(fieldName string, agg models.Aggregation) bool {
	d, ok := c.fields[fieldName]
	if !ok {
		return false
	}
	return d.Supports(agg)
}

// Fields returns every descriptor in record column order.
func (c *Catalog) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, copyDescriptor(c.fields[name]))
	}
	return out
}

// FieldsOfKind returns field names of the given kinds in column order.
func (c *Catalog) FieldsOfKind(kinds ...Kind) []string {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var names []string
	for _, name := range c.order {
		if want[c.fields[name].Kind] {
			names = append(names, name)
		}
	}
	return names
}

// MeasurableFields lists fields that accept at least one aggregation.
func (c *Catalog) MeasurableFields() []string {
	var names []string
	for _, name := range c.order {
		if c.fields[name].Measurable() {
			names = append(names, name)
		}
	}
	return names
}

// DisplayName falls back to the raw name for unknown fields.
func (c *Catalog) DisplayName(fieldName string) string {
	if d, ok := c.fields[fieldName]; ok {
		return d.DisplayName
	}
	return fieldName
}

// PaymentStatuses returns the configured status vocabulary.
func (c *Catalog) PaymentStatuses() []string {
	return append([]string(nil), c.fields[models.FieldPaymentStatus].Values...)
}

// Names returns all field names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

func copyDescriptor(d FieldDescriptor) FieldDescriptor {
	d.Aggregations = append([]models.Aggregation(nil), d.Aggregations...)
	d.Values = append([]string(nil), d.Values...)
	return d
}

func Describe(fieldName string) (FieldDescriptor, bool) {
	return defaultCatalog.Describe(fieldName)
}

func SupportsAggregation(fieldName string, agg models.Aggregation) bool {
	return defaultCatalog.SupportsAggregation(fieldName, agg)
}
