// Command smoketest signs a throwaway user up against the configured
// database, exercises the main tables and prints a pass/fail report.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/cli"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

const smokePassword = "smoke-test-password"

type check struct {
	name string
	run  func(ctx context.Context, s *suite) (string, error)
}

// suite carries state between checks.
type suite struct {
	store    storage.Store
	accounts *services.AccountService
	expenses *services.ExpenseService
	budgets  *services.BudgetService
	reports  *services.ReportService

	email   string
	user    core.User
	session core.Session
	expense core.Expense
	now     time.Time
}

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	failed := run(ctx, res.Store, os.Stdout)
	if err := res.Cleanup(); err != nil {
		logger.Warn("Backend cleanup error", log.FieldError, err)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// run executes every check in order and returns the number of failures.
// Checks after a failed sign-up are skipped since they need the user.
func run(ctx context.Context, store storage.Store, out io.Writer) int {
	s := &suite{
		store:    store,
		accounts: services.NewAccountService(store, 0),
		expenses: services.NewExpenseService(store, nil),
		budgets:  services.NewBudgetService(store),
		reports:  services.NewReportService(store, nil, nil, nil),
		email:    fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8]),
		now:      time.Now(),
	}

	fmt.Fprintln(out, "Spendwise smoke test")
	fmt.Fprintln(out)

	failed := 0
	for i, c := range checks {
		detail, err := c.run(ctx, s)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%2d. FAIL %s: %v\n", i+1, c.name, err)
			if i < requiredChecks {
				fmt.Fprintf(out, "    skipping %d remaining checks\n", len(checks)-i-1)
				break
			}
			continue
		}
		fmt.Fprintf(out, "%2d. ok   %s", i+1, c.name)
		if detail != "" {
			fmt.Fprintf(out, " (%s)", detail)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	if failed > 0 {
		fmt.Fprintf(out, "%d of %d checks failed\n", failed, len(checks))
	} else {
		fmt.Fprintf(out, "All %d checks passed. Test user %s was left in place.\n", len(checks), s.email)
	}
	return failed
}

// requiredChecks is the number of leading checks the rest depend on.
const requiredChecks = 3

var checks = []check{
	{"database reachable", func(ctx context.Context, s *suite) (string, error) {
		return "", s.store.Ping(ctx)
	}},
	{"sign up", func(ctx context.Context, s *suite) (string, error) {
		u, err := s.accounts.CreateConfirmedUser(ctx, s.email, smokePassword)
		if err != nil {
			return "", err
		}
		s.user = u
		return s.email, nil
	}},
	{"sign in", func(ctx context.Context, s *suite) (string, error) {
		session, err := s.accounts.SignIn(ctx, s.email, smokePassword)
		if err != nil {
			return "", err
		}
		s.session = session
		if _, _, err := s.accounts.ResolveSession(ctx, session.Token); err != nil {
			return "", fmt.Errorf("resolve session: %w", err)
		}
		return "", nil
	}},
	{"settings table", func(ctx context.Context, s *suite) (string, error) {
		settings, err := s.store.GetSettings(ctx, s.user.ID)
		if err != nil {
			return "", err
		}
		s.now = s.now.In(settings.Location())
		return fmt.Sprintf("%s, %s", settings.Currency, settings.Timezone), nil
	}},
	{"categories table", func(ctx context.Context, s *suite) (string, error) {
		cats, err := s.store.ListCategories(ctx, s.user.ID)
		if err != nil {
			return "", err
		}
		if len(cats) != len(core.DefaultCategoryList) {
			return "", fmt.Errorf("got %d default categories, want %d", len(cats), len(core.DefaultCategoryList))
		}
		return fmt.Sprintf("%d categories", len(cats)), nil
	}},
	{"expenses table", func(ctx context.Context, s *suite) (string, error) {
		e, err := s.expenses.Create(ctx, s.user.ID, services.ExpenseInput{
			CategoryID:  core.DefaultCategoryID(s.user.ID, core.DefaultCategoryList[0].Name),
			Amount:      "25.50",
			Description: "Smoke test expense",
			Date:        s.now.Format(core.DateLayout),
		})
		if err != nil {
			return "", err
		}
		s.expense = e
		return e.Amount.Format(e.Currency), nil
	}},
	{"budgets table", func(ctx context.Context, s *suite) (string, error) {
		b, err := s.budgets.Create(ctx, s.user.ID, services.BudgetInput{
			CategoryID: s.expense.CategoryID,
			Amount:     "100",
			Month:      int(s.now.Month()),
			Year:       s.now.Year(),
		})
		if err != nil {
			return "", err
		}
		return b.Amount.Format(b.Currency), nil
	}},
	{"dashboard views", func(ctx context.Context, s *suite) (string, error) {
		d, err := s.reports.Dashboard(ctx, s.user.ID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d expenses this month", d.Totals.ExpenseCount), nil
	}},
	{"report generation", func(ctx context.Context, s *suite) (string, error) {
		end := core.NewDate(s.now.Year(), int(s.now.Month()), s.now.Day())
		start := core.Date{Time: end.AddDate(0, 0, -30)}
		r, err := s.reports.Generate(ctx, s.user.ID, start, end)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d sheets", len(r.Sheets)), nil
	}},
	{"cleanup", func(ctx context.Context, s *suite) (string, error) {
		if err := s.expenses.Delete(ctx, s.user.ID, s.expense.ID); err != nil {
			return "", err
		}
		return "", s.accounts.SignOut(ctx, s.session.Token)
	}},
}
