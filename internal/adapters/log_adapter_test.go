package adapters

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/amqp"
)

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, p.PublishBudgetAlert(ctx, &amqp.BudgetAlertMessage{AlertID: "a1", AlertType: "budget_exceeded"}))
	require.NoError(t, p.PublishReportExport(ctx, amqp.NewReportExportMessage("u1", "2024-03-01", "2024-03-31")))
	require.NoError(t, p.PublishWeeklyDigest(ctx, &amqp.WeeklyDigestMessage{DigestID: "d1"}))

	out := buf.String()
	assert.Contains(t, out, "alert_id=a1")
	assert.Contains(t, out, "range_start=2024-03-01")
	assert.Contains(t, out, "digest_id=d1")
	assert.Contains(t, out, "component=events")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, n.Notify(context.Background(), "u1", "Budget exceeded", "Food & Dining is at 104%"))
	assert.Contains(t, buf.String(), `subject="Budget exceeded"`)
}
