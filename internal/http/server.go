package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"casal/internal/cache"
	"casal/internal/core"
	applog "casal/internal/log"
	"casal/internal/middleware/ratelimit"
	"casal/internal/middleware/security"
	"casal/internal/services"
	"casal/internal/store"
)

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	Logger             *applog.Logger
}

type Server struct {
	http.Server

	store    store.Store
	couples  *services.CoupleService
	expenses *services.ExpenseService
	incomes  *services.IncomeService
	settle   *services.SettlementService

	// Month reports keyed "coupleID:YYYY-MM"; every write drops the couple's entries.
	reports *cache.LRUCache[services.MonthReport]
	caches  *cache.Manager

	// gens counts invalidations per couple. A report built from a session
	// loaded before the latest invalidation is not cached.
	genMu sync.Mutex
	gens  map[string]uint64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the services over st and returns a ready-to-run server.
// pub may be nil; writes are then not announced.
func NewServer(addr string, st store.Store, pub services.ChangePublisher, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 200
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})
	}

	s := &Server{
		store:    st,
		couples:  services.NewCoupleService(st),
		expenses: services.NewExpenseService(st, pub),
		incomes:  services.NewIncomeService(st, pub),
		settle:   services.NewSettlementService(st, pub),
		reports:  cache.NewLRUCache[services.MonthReport](opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(),
		gens:     make(map[string]uint64),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		now:      time.Now,
	}
	s.caches.Register(s.reports)
	s.caches.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/couples", s.handleCreateCouple)
	mux.HandleFunc("GET /api/couples/{coupleID}", s.handleGetCouple)

	mux.HandleFunc("GET /api/couples/{coupleID}/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/couples/{coupleID}/expenses", s.handleCreateExpense)
	mux.HandleFunc("PATCH /api/couples/{coupleID}/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/couples/{coupleID}/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/couples/{coupleID}/incomes", s.handleListIncomes)
	mux.HandleFunc("POST /api/couples/{coupleID}/incomes", s.handleCreateIncome)
	mux.HandleFunc("PATCH /api/couples/{coupleID}/incomes/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/couples/{coupleID}/incomes/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/couples/{coupleID}/months/{ym}", s.handleMonthReport)
	mux.HandleFunc("GET /api/couples/{coupleID}/months/{ym}/balance", s.handleBalance)
	mux.HandleFunc("POST /api/couples/{coupleID}/months/{ym}/settlement", s.handleSettle)
	mux.HandleFunc("DELETE /api/couples/{coupleID}/months/{ym}/settlement", s.handleUndoSettlement)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later", nil).Write(w)
	}
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit,
		http.MethodPost, http.MethodPatch, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = applog.Middleware(logger, s.detector.ExtractClientIP)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// WithClock replaces the time source for default months and settlement dates.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	s.settle.WithClock(now)
	return s
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the store answers within two seconds.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.ListCouples(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// session loads the couple named by the {coupleID} path segment.
func (s *Server) session(r *http.Request) (*services.Session, error) {
	return services.LoadSession(r.Context(), s.store, r.PathValue("coupleID"))
}

// report returns the cached month report or builds it from sess. gen is the
// couple's generation read before sess was loaded.
func (s *Server) report(ctx context.Context, sess *services.Session, gen uint64, ym core.YearMonth) services.MonthReport {
	key := sess.Couple.ID + ":" + ym.String()
	if rep, ok := s.reports.Get(key); ok {
		slog.DebugContext(ctx, "Month report cache hit", "couple_id", sess.Couple.ID, "year_month", ym.String())
		return rep
	}
	rep := sess.Report(ym)
	if !s.cacheReport(sess.Couple.ID, gen, ym, rep) {
		slog.DebugContext(ctx, "Month report not cached, couple changed while building", "couple_id", sess.Couple.ID, "year_month", ym.String())
	}
	return rep
}

// generation returns the couple's invalidation count.
func (s *Server) generation(coupleID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[coupleID]
}

// cacheReport stores rep unless the couple was invalidated after gen was read.
func (s *Server) cacheReport(coupleID string, gen uint64, ym core.YearMonth, rep services.MonthReport) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[coupleID] != gen {
		return false
	}
	s.reports.Set(coupleID+":"+ym.String(), rep)
	return true
}

// invalidate drops every cached report of the couple and refuses reports
// still being built from older data.
func (s *Server) invalidate(ctx context.Context, coupleID string) {
	s.genMu.Lock()
	s.gens[coupleID]++
	n := s.reports.DeletePrefix(coupleID + ":")
	s.genMu.Unlock()
	if n > 0 {
		slog.DebugContext(ctx, "Month reports invalidated", "couple_id", coupleID, "entries", n)
	}
}
