package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

// Ledger is what the API serves.
type Ledger interface {
	GetPeriodView(ctx context.Context, key core.PartitionKey) services.View
	AddTransaction(ctx context.Context, c core.Candidate) (core.PartitionKey, error)
	RemoveTransactions(ctx context.Context, key core.PartitionKey, indices []int) error
	Periods(ctx context.Context, now time.Time) ([]core.PartitionKey, error)
	CheckPeriod(key core.PartitionKey) error
	CurrentPeriod(now time.Time) core.PartitionKey
	Summary(v services.View, c services.Criteria) services.Report
}

type requestIDKey struct{}

const headerRequestID = "X-Request-ID"

type Server struct {
	http.Server
	ledger      Ledger
	logger      *log.Logger
	validate    *validator.Validate
	rateLimiter *rateLimiter
	metrics     securityMetrics
	ready       atomic.Bool
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		ledger:      ledger,
		logger:      logger.WithComponent(log.ComponentHTTP),
		validate:    newValidator(),
		rateLimiter: newRateLimiter(defaultRateLimit),
		now:         time.Now,
	}
	s.ready.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/periods", s.handlePeriods)
	mux.HandleFunc("GET /api/periods/{key}/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/periods/{key}/summary", s.handleSummary)
	mux.HandleFunc("POST /api/periods/{key}/delete", s.handleDelete)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withRequestID(log.Middleware(s.logger, requestIDFrom)(s.withSecurity(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestID keeps a caller-supplied UUID request id or assigns a new one.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// withSecurity sets response hardening headers, flags probing requests and
// rate limits writes per client.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		clientIP := extractClientIP(r)
		logger := log.FromContext(r.Context())

		if detectSuspiciousRequest(r, &s.metrics) {
			logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
