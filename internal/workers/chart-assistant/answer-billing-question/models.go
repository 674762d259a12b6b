package answerbillingquestion

import "billing-chart-workers/internal/chart/conversation"

type Input struct {
	Message string              `json:"message"`
	History []conversation.Turn `json:"history,omitempty"`
}

type Output struct {
	Answer      string `json:"answer"`
	Degraded    bool   `json:"degraded"`
	RecordCount int    `json:"recordCount"`
}
