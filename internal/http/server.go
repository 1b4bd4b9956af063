package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
	appweb "spendwise/web"
)

const (
	loginPath     = "/auth/login"
	dashboardPath = "/dashboard"
)

// Services are the application services the handlers call.
type Services struct {
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Expenses   *services.ExpenseService
	Budgets    *services.BudgetService
	Settings   *services.SettingsService
	Reports    *services.ReportService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer is a cache whose entry count is exported on /metrics.
type Sizer interface {
	Size() int
}

// Options configures a Server. Only Addr and Logger are required.
type Options struct {
	Addr          string
	Logger        *log.Logger
	SecureCookies bool
	// SessionLifetime defaults to auth.DefaultLifetime.
	SessionLifetime time.Duration
	Store           Pinger
	Caches          map[string]Sizer
	RateLimit       ratelimit.Config
	// Assets defaults to the embedded web assets.
	Assets fs.FS
	Now    func() time.Time
}

// appMetrics are the application counters exported on /metrics.
type appMetrics struct {
	startedAt        time.Time
	expensesCreated  atomic.Int64
	exportsRequested atomic.Int64
	signIns          atomic.Int64
	failedSignIns    atomic.Int64
}

type Server struct {
	http.Server
	svc       Services
	templates *templateSet
	logger    *log.Logger
	events    *log.StructuredLogger
	cookies   auth.Cookies
	store     Pinger
	caches    map[string]Sizer
	now       func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the templates, configures routes and middleware, and
// returns a ready-to-run server.
func NewServer(svc Services, opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("http server needs a logger")
	}
	assets := opts.Assets
	if assets == nil {
		assets = appweb.FS
	}
	templates, err := loadTemplates(assets)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		svc:       svc,
		templates: templates,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		cookies:   auth.Cookies{Secure: opts.SecureCookies, Lifetime: opts.SessionLifetime},
		store:     opts.Store,
		caches:    opts.Caches,
		now:       now,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
	}
	s.metrics.startedAt = now()
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux, assets)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, assets fs.FS) {
	if sub, err := fs.Sub(assets, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount static assets", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /auth/login", s.handleLoginPage)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/signup", s.handleSignupPage)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/callback", s.handleConfirm)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireSession(h))
	}
	protected("GET /dashboard", s.handleDashboard)
	protected("GET /analytics", s.handleAnalytics)

	protected("GET /expenses", s.handleExpenses)
	protected("POST /expenses", s.handleCreateExpense)
	protected("POST /expenses/{id}", s.handleUpdateExpense)
	protected("DELETE /expenses/{id}", s.handleDeleteExpense)

	protected("GET /budgets", s.handleBudgets)
	protected("POST /budgets", s.handleCreateBudget)
	protected("POST /budgets/{id}", s.handleUpdateBudget)
	protected("DELETE /budgets/{id}", s.handleDeleteBudget)

	protected("GET /categories", s.handleCategories)
	protected("POST /categories", s.handleCreateCategory)
	protected("POST /categories/{id}", s.handleUpdateCategory)
	protected("DELETE /categories/{id}", s.handleDeleteCategory)

	protected("GET /settings", s.handleSettingsPage)
	protected("POST /settings", s.handleUpdateSettings)

	protected("GET /reports", s.handleReports)
	protected("GET /reports/preview", s.handleReportPreview)
	protected("GET /reports/download", s.handleReportDownload)
	protected("POST /reports/export", s.handleReportExport)

	mux.HandleFunc("/", s.handleNotFound)
}

// middleware wraps the mux, outermost first: security headers, probe
// detection, tracing, logger in context, rate limiting of mutations.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// requireSession runs h for signed-in users only.
func (s *Server) requireSession(h http.HandlerFunc) http.Handler {
	return auth.Middleware(s.svc.Accounts, s.cookies, loginPath)(security.NoStore(h))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests. Please wait a minute and try again.").
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// Shutdown stops the background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// userID returns the signed-in user. Only valid behind requireSession.
func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}

// currentEmail looks up the signed-in user's email for the page header.
func (s *Server) currentEmail(r *http.Request) string {
	id := userID(r)
	if id == "" {
		return ""
	}
	u, err := s.svc.Accounts.User(r.Context(), id)
	if err != nil {
		return ""
	}
	return u.Email
}

// today is the current date in the user's timezone.
func (s *Server) today(tz string) core.Date {
	return core.Today(s.now(), tz)
}
