// internal/chart/conversation/responder.go
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/oracle"
	"billing-chart-workers/internal/chart/summary"
	"billing-chart-workers/internal/common/observability"
)

var ErrEmptyQuestion = errors.New("question is required")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxHistoryTurns = 10
	topEntries      = 10
	sampleRecords   = 5
)

// Apology is shown to users when no answer could be produced.
const Apology = "Sorry, I couldn't answer that right now. Please try again in a moment."

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the assistant's reply. Degraded is set when no billing context
// was available and the reply is not grounded in data.
type Answer struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

type Responder struct {
	oracle oracle.Oracle
}

func NewResponder(o oracle.Oracle) *Responder {
	return &Responder{oracle: o}
}

// Answer asks the oracle to answer a conversational billing question.
// Oracle failures are returned to the caller unchanged.
func (r *Responder) Answer(ctx context.Context, question string, history []Turn, s *summary.BillingSummary) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if r.oracle == nil {
		return nil, oracle.ErrUnavailable
	}

	ctx, span := observability.StartSpan(ctx, "chart.answer_question")
	text, err := r.oracle.Generate(ctx, BuildPrompt(question, history, s))
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, oracle.ErrUnavailable
	}
	return &Answer{Text: text, Degraded: s == nil}, nil
}

const systemPrompt = `You are a healthcare billing and insurance AI assistant. You have access to billing data from a healthcare management system. Your role is to:

1. Help users understand their billing and insurance data
2. Answer questions about payments, claims, and outstanding amounts
3. Provide insights about healthcare costs and insurance coverage
4. Explain billing codes and medical procedures when relevant
5. Help identify trends in healthcare spending

Please be professional, accurate, and helpful. If you don't have enough information to answer a question completely, let the user know what additional information would be helpful.`

func BuildPrompt(question string, history []Turn, s *summary.BillingSummary) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if s != nil {
		writeDataContext(&b, s)
	} else {
		b.WriteString("NOTE: Billing data is currently unavailable. Answer from general knowledge and say that figures could not be checked.\n")
	}

	if len(history) > 0 {
		if len(history) > maxHistoryTurns {
			history = history[len(history)-maxHistoryTurns:]
		}
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, t := range history {
			role := "User"
			if t.Role == RoleAssistant {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(t.Content))
		}
	}

	fmt.Fprintf(&b, "\nUser Question: %s", question)
	return b.String()
}

func writeDataContext(b *strings.Builder, s *summary.BillingSummary) {
	b.WriteString("HEALTHCARE BILLING SYSTEM DATA - COMPLETE DATASET\n\n")

	b.WriteString("SUMMARY STATISTICS:\n")
	fmt.Fprintf(b, "- Total Records: %s\n", aggregate.FormatInt(int64(s.TotalRecords)))
	fmt.Fprintf(b, "- Total Unique Patients: %s\n", aggregate.FormatInt(int64(s.TotalPatients)))
	fmt.Fprintf(b, "- Total Revenue: %s\n", aggregate.FormatCurrency(s.TotalRevenue))
	fmt.Fprintf(b, "- Total Amount Paid: %s\n", aggregate.FormatCurrency(s.TotalPaid))
	fmt.Fprintf(b, "- Total Outstanding: %s\n", aggregate.FormatCurrency(s.TotalOutstanding))
	fmt.Fprintf(b, "- Pending and Overdue Balance: %s\n", aggregate.FormatCurrency(s.PendingAmount))
	fmt.Fprintf(b, "- Average Charges per Record: %s\n", aggregate.FormatCurrency(s.AverageCharges))
	fmt.Fprintf(b, "- Average Insurance Coverage: %g%%\n", s.AverageCoverage)
	if s.OldestAdmissionDate != "" {
		fmt.Fprintf(b, "- Date Range: %s to %s\n", s.OldestAdmissionDate, s.LatestAdmissionDate)
	}

	writeCounts(b, "PAYMENT STATUS BREAKDOWN", s.PaymentStatusBreakdown, "records", 0)
	writeCounts(b, "INSURANCE PROVIDERS", s.InsuranceProviders, "patients", topEntries)
	writeCounts(b, "GENDER DISTRIBUTION", s.GenderDistribution, "patients", 0)
	writeCounts(b, "TOP SERVICE TYPES", s.ServiceTypes, "records", topEntries)

	if len(s.MonthlyRevenue) > 0 {
		b.WriteString("\nMONTHLY REVENUE:\n")
		for _, m := range s.MonthlyRevenue {
			fmt.Fprintf(b, "- %s: %s\n", m.Label, aggregate.FormatCurrency(m.Revenue))
		}
	}

	recent := s.RecentRecords
	if len(recent) > sampleRecords {
		recent = recent[:sampleRecords]
	}
	if sample, err := json.MarshalIndent(recent, "", "  "); err == nil {
		fmt.Fprintf(b, "\nSAMPLE RECENT RECORDS (Top %d):\n%s\n", len(recent), sample)
	}

	if len(s.RecentRecords) > 0 {
		fields := make([]string, 0, len(s.RecentRecords[0]))
		for k := range s.RecentRecords[0] {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		fmt.Fprintf(b, "\nAVAILABLE DATA FIELDS:\n%s\n", strings.Join(fields, ", "))
	}

	fmt.Fprintf(b, "\nYou have access to ALL %d records covering %d patients. Use this data to provide insights about financial performance, patient demographics, insurance coverage and outstanding payments.\n",
		s.TotalRecords, s.TotalPatients)
}

// writeCounts lists a breakdown by descending count; limit 0 lists all.
func writeCounts(b *strings.Builder, heading string, counts map[string]int, unit string, limit int) {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, entry{k, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, e := range entries {
		fmt.Fprintf(b, "- %s: %d %s\n", e.key, e.count, unit)
	}
}
