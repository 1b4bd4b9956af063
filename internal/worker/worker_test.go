package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/sheets/memory"
	"spendwise/internal/storage"
)

type note struct {
	userID, subject, body string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, userID, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notes = append(n.notes, note{userID, subject, body})
	return nil
}

// fakeBackend keeps settings and alert statuses in memory.
type fakeBackend struct {
	settings    core.Settings
	settingsErr error
	statuses map[string]core.DeliveryStatus
	messages map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		settings: core.DefaultSettings("u1"),
		statuses: make(map[string]core.DeliveryStatus),
		messages: make(map[string]string),
	}
}

func (f *fakeBackend) RecordAlert(context.Context, core.BudgetAlert) (bool, error) { return true, nil }

func (f *fakeBackend) UpdateAlertStatus(_ context.Context, id string, status core.DeliveryStatus, errMsg string, _ time.Time) error {
	f.statuses[id] = status
	f.messages[id] = errMsg
	return nil
}

func (f *fakeBackend) GetSettings(context.Context, string) (core.Settings, error) {
	return f.settings, f.settingsErr
}
func (f *fakeBackend) UpdateSettings(context.Context, core.Settings) error         { return nil }
func (f *fakeBackend) ListDigestSubscribers(context.Context) ([]core.Settings, error) {
	return []core.Settings{f.settings}, nil
}

func testLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func TestHandleBudgetAlert(t *testing.T) {
	msg := &amqp.BudgetAlertMessage{
		AlertID:        "a1",
		UserID:         "u1",
		CategoryName:   "Food & Dining",
		AlertType:      string(core.AlertBudgetExceeded),
		Month:          3,
		Year:           2024,
		PercentageUsed: 104.5,
	}

	t.Run("delivered", func(t *testing.T) {
		backend, notifier := newFakeBackend(), &recordingNotifier{}
		w := New(backend, nil, nil, nil, notifier, testLogger())
		require.NoError(t, w.HandleBudgetAlert(context.Background(), msg))
		assert.Equal(t, core.StatusSent, backend.statuses["a1"])
		require.Len(t, notifier.notes, 1)
		assert.Equal(t, "Budget exceeded: Food & Dining", notifier.notes[0].subject)
		assert.Contains(t, notifier.notes[0].body, "104.5%")
		assert.Contains(t, notifier.notes[0].body, "March 2024")
	})

	t.Run("notifier failure is recorded", func(t *testing.T) {
		backend := newFakeBackend()
		w := New(backend, nil, nil, nil, &recordingNotifier{err: errors.New("smtp down")}, testLogger())
		require.NoError(t, w.HandleBudgetAlert(context.Background(), msg))
		assert.Equal(t, core.StatusFailed, backend.statuses["a1"])
		assert.Equal(t, "smtp down", backend.messages["a1"])
	})

	t.Run("notifications disabled", func(t *testing.T) {
		backend, notifier := newFakeBackend(), &recordingNotifier{}
		backend.settings.EmailNotifications = false
		w := New(backend, nil, nil, nil, notifier, testLogger())
		require.NoError(t, w.HandleBudgetAlert(context.Background(), msg))
		assert.Empty(t, notifier.notes)
		assert.Equal(t, core.StatusFailed, backend.statuses["a1"])
	})

	t.Run("unknown user is dropped", func(t *testing.T) {
		backend, notifier := newFakeBackend(), &recordingNotifier{}
		backend.settingsErr = fmt.Errorf("get settings: %w", storage.ErrNotFound)
		w := New(backend, nil, nil, nil, notifier, testLogger())
		require.NoError(t, w.HandleBudgetAlert(context.Background(), msg))
		assert.Empty(t, notifier.notes)
		assert.Empty(t, backend.statuses)
	})

	t.Run("backend error is retried", func(t *testing.T) {
		backend := newFakeBackend()
		backend.settingsErr = errors.New("database is locked")
		w := New(backend, nil, nil, nil, &recordingNotifier{}, testLogger())
		assert.Error(t, w.HandleBudgetAlert(context.Background(), msg))
	})
}

func TestAlertText(t *testing.T) {
	subject, body := alertText(&amqp.BudgetAlertMessage{
		CategoryName:   "Travel",
		AlertType:      string(core.AlertBudgetThreshold),
		Month:          12,
		Year:           2023,
		PercentageUsed: 80,
	})
	assert.Equal(t, "Budget alert: Travel", subject)
	assert.Equal(t, "You have used 80.0% of your December 2023 budget for Travel.", body)
}

type fixture struct {
	ctx      context.Context
	repo     *storage.SQLiteRepository
	user     core.User
	now      time.Time
	expenses *services.ExpenseService
	reports  *services.ReportService
	digests  *services.DigestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	f := &fixture{ctx: context.Background(), repo: repo, now: time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)}
	clock := services.Clock(func() time.Time { return f.now })

	accounts := services.NewAccountService(repo, 0)
	accounts.Clock = clock
	f.user, err = accounts.SignUp(f.ctx, core.SignUpInput{Email: "ana@example.com", Password: "password1", ConfirmPassword: "password1"})
	require.NoError(t, err)

	f.expenses = services.NewExpenseService(repo, nil)
	f.expenses.Clock = clock
	f.reports = services.NewReportService(repo, nil, nil, nil)
	f.reports.Clock = clock
	f.digests = services.NewDigestService(repo, nil, nil)
	f.digests.Clock = clock
	return f
}

func (f *fixture) addExpense(t *testing.T, category, amount, date string) {
	t.Helper()
	_, err := f.expenses.Create(f.ctx, f.user.ID, services.ExpenseInput{
		CategoryID: core.DefaultCategoryID(f.user.ID, category),
		Amount:     amount,
		Date:       date,
	})
	require.NoError(t, err)
}

func TestHandleReportExport(t *testing.T) {
	f := newFixture(t)
	f.addExpense(t, "Travel", "120", "2024-03-02")
	writer := memory.New()
	w := New(f.repo, f.reports, f.digests, writer, &recordingNotifier{}, testLogger())

	require.NoError(t, w.HandleReportExport(f.ctx, amqp.NewReportExportMessage(f.user.ID, "2024-03-01", "2024-03-31")))
	require.Len(t, writer.Reports(), 1)
	assert.Equal(t, "Monthly_Report_2024-03-01_to_2024-03-31.xlsx", writer.Reports()[0].Filename)

	// Malformed messages are dropped without requeue.
	require.NoError(t, w.HandleReportExport(f.ctx, amqp.NewReportExportMessage(f.user.ID, "March", "2024-03-31")))
	assert.Len(t, writer.Reports(), 1)

	// Inverted ranges and unknown users can never succeed and are dropped.
	assert.NoError(t, w.HandleReportExport(f.ctx, amqp.NewReportExportMessage(f.user.ID, "2024-04-01", "2024-03-31")))
	assert.NoError(t, w.HandleReportExport(f.ctx, amqp.NewReportExportMessage("deleted-user", "2024-03-01", "2024-03-31")))
	assert.Len(t, writer.Reports(), 1)
	assert.Equal(t, f.user.ID, writer.Reports()[0].UserID)

	unconfigured := New(f.repo, f.reports, f.digests, nil, &recordingNotifier{}, testLogger())
	assert.NoError(t, unconfigured.HandleReportExport(f.ctx, amqp.NewReportExportMessage(f.user.ID, "2024-03-01", "2024-03-31")))
}

func TestHandleReportExportRetriesBackendErrors(t *testing.T) {
	f := newFixture(t)
	w := New(f.repo, f.reports, f.digests, memory.New(), &recordingNotifier{}, testLogger())
	require.NoError(t, f.repo.Close())
	assert.Error(t, w.HandleReportExport(f.ctx, amqp.NewReportExportMessage(f.user.ID, "2024-03-01", "2024-03-31")))
}

func TestHandleWeeklyDigestUnknownUser(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	w := New(f.repo, f.reports, f.digests, nil, notifier, testLogger())
	msg := &amqp.WeeklyDigestMessage{DigestID: "gone", UserID: "deleted-user", WeekStart: "2024-03-04", WeekEnd: "2024-03-10"}
	require.NoError(t, w.HandleWeeklyDigest(f.ctx, msg))
	assert.Empty(t, notifier.notes)
}

type capturePublisher struct {
	digests []*amqp.WeeklyDigestMessage
}

func (p *capturePublisher) PublishBudgetAlert(context.Context, *amqp.BudgetAlertMessage) error   { return nil }
func (p *capturePublisher) PublishReportExport(context.Context, *amqp.ReportExportMessage) error { return nil }
func (p *capturePublisher) PublishWeeklyDigest(_ context.Context, msg *amqp.WeeklyDigestMessage) error {
	p.digests = append(p.digests, msg)
	return nil
}

func TestHandleWeeklyDigest(t *testing.T) {
	f := newFixture(t)
	f.addExpense(t, "Travel", "40", "2024-03-05")
	f.addExpense(t, "Shopping", "12.50", "2024-03-09")

	publisher := &capturePublisher{}
	digests := services.NewDigestService(f.repo, publisher, nil)
	digests.Clock = func() time.Time { return f.now }
	queued, err := digests.ScheduleDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, queued)
	require.Len(t, publisher.digests, 1)

	notifier := &recordingNotifier{}
	w := New(f.repo, f.reports, digests, nil, notifier, testLogger())
	require.NoError(t, w.HandleWeeklyDigest(f.ctx, publisher.digests[0]))

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, "Your week: Mar 04, 2024 - Mar 10, 2024", notifier.notes[0].subject)
	assert.Contains(t, notifier.notes[0].body, "across 2 expenses")
	assert.Contains(t, notifier.notes[0].body, "- Travel: $40.00")
}

func TestDigestTextEmptyWeek(t *testing.T) {
	_, body := digestText(services.DigestSummary{WeekStart: core.NewDate(2024, 3, 4), WeekEnd: core.NewDate(2024, 3, 10)})
	assert.Equal(t, "No expenses recorded this week.", body)
}
