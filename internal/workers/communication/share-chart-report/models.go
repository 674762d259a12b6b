package sharechartreport

import (
	"time"

	"billing-chart-workers/internal/models"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent    = "sent"
	StatusPartial = "partial"
)

type Input struct {
	SpecID      string              `json:"specId,omitempty"`
	Chart       *models.ChartBundle `json:"chart"`
	Email       string              `json:"recipientEmail,omitempty"`
	PhoneNumber string              `json:"recipientPhone,omitempty"`
	Subject     string              `json:"subject,omitempty"`
}

type Output struct {
	NotificationID string            `json:"notificationId"`
	Status         string            `json:"status"`
	Channels       []string          `json:"channels"`
	MessageIDs     map[string]string `json:"messageIds"`
	Failures       map[string]string `json:"failures,omitempty"`
	SentAt         time.Time         `json:"sentAt"`
}
