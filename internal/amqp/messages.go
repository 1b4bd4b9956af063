package amqp

import (
	"encoding/json"
	"time"
)

// Queue names double as routing keys on the direct exchange.
const (
	QueueBudgetAlerts  = "budget_alerts"
	QueueReportExports = "report_exports"
	QueueWeeklyDigests = "weekly_digests"
)

// Queues lists every queue declared by the client.
var Queues = []string{QueueBudgetAlerts, QueueReportExports, QueueWeeklyDigests}

// BudgetAlertMessage announces that a budget crossed the user's threshold or its limit.
// The alert row already exists; the worker delivers it and records the outcome.
type BudgetAlertMessage struct {
	AlertID        string    `json:"alert_id"`
	UserID         string    `json:"user_id"`
	BudgetID       string    `json:"budget_id"`
	CategoryID     string    `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	AlertType      string    `json:"alert_type"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	PercentageUsed float64   `json:"percentage_used"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReportExportMessage asks the worker to generate a report and push it to Google Sheets.
type ReportExportMessage struct {
	UserID    string    `json:"user_id"`
	Start     string    `json:"start"` // YYYY-MM-DD
	End       string    `json:"end"`
	Timestamp time.Time `json:"timestamp"`
}

// WeeklyDigestMessage points at a queued digest row.
type WeeklyDigestMessage struct {
	DigestID  string    `json:"digest_id"`
	UserID    string    `json:"user_id"`
	WeekStart string    `json:"week_start"`
	WeekEnd   string    `json:"week_end"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportExportMessage(userID, start, end string) *ReportExportMessage {
	return &ReportExportMessage{
		UserID:    userID,
		Start:     start,
		End:       end,
		Timestamp: time.Now(),
	}
}

// ToJSON converts a message to JSON bytes
func ToJSON(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// FromJSON decodes a message of type T.
func FromJSON[T any](data []byte) (*T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
