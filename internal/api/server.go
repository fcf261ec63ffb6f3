// Package api provides the HTTP server for Walking Buddies.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/cache"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
	"github.com/walkbuddy/walkbuddy/internal/infra/sqlite"
)

// Version is reported by /api/version.
const Version = "0.3.0"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server is the Walking Buddies HTTP API server.
type Server struct {
	eng            *engine.Engine
	log            *logrus.Entry
	metricsEnabled bool
	corsOrigins    []string
	limiter        *RateLimiter          // nil disables rate limiting
	journal        *sqlite.DB            // nil if the journal is off
	mirror         *cache.RedisCache     // nil if Redis is off
	jobs           *observability.JobLog // nil if the scheduler is off
	timeout        time.Duration
}

// NewServer creates a new API server.
func NewServer(eng *engine.Engine) *Server {
	return &Server{
		eng:     eng,
		log:     logrus.NewEntry(logrus.StandardLogger()).WithField("component", "api"),
		timeout: 30 * time.Second,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetLogger replaces the request logger.
func (s *Server) SetLogger(l *logrus.Entry) { s.log = l }

// SetCORSOrigins sets the allowed CORS origins. Empty means "*".
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetRateLimiter enables per-client rate limiting.
func (s *Server) SetRateLimiter(l *RateLimiter) { s.limiter = l }

// SetJournal exposes the points journal under /api/journal.
func (s *Server) SetJournal(db *sqlite.DB) { s.journal = db }

// SetMirror exposes the Redis leaderboard mirror under /api/leaderboard/mirror.
func (s *Server) SetMirror(c *cache.RedisCache) { s.mirror = c }

// SetJobLog exposes recent scheduler runs under /api/jobs.
func (s *Server) SetJobLog(j *observability.JobLog) { s.jobs = j }

// SetTimeout sets the per-request timeout.
func (s *Server) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.instrument)
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})
		r.Get("/rules", s.handleRules)

		// Activity
		r.Post("/walks", s.handleRecordWalk)
		r.Post("/invites", s.handleSendInvite)

		// Users
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.handleProfile)
			r.Put("/", s.handleEnsureUser)
			r.Get("/history", s.handleHistory)
			r.Get("/challenges", s.handleBoard)
			r.Post("/evaluate", s.handleEvaluateAll)
			r.Get("/invites", s.handleInvites)
			r.Get("/routes", s.handleListRoutes)
			r.Delete("/routes/{name}", s.handleDeleteRoute)
			r.Get("/redemptions", s.handleRedemptions)
			r.Get("/reminders", s.handleReminders)
			r.Put("/reminders", s.handleUpdateReminders)
			r.Get("/reminders/due", s.handleDueReminders)
			r.Post("/reminders/{kind}/{action}", s.handleReminderAction)
		})

		// Challenges
		r.Get("/challenges", s.handleListChallenges)
		r.Post("/challenges", s.handleCreateChallenge)
		r.Route("/challenges/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetChallenge)
			r.Post("/join", s.handleJoinChallenge)
			r.Post("/leave", s.handleLeaveChallenge)
			r.Post("/evaluate", s.handleEvaluate)
			r.Get("/progress", s.handleProgress)
		})

		// Teams & battles
		r.Get("/teams", s.handleListTeams)
		r.Post("/teams/leave", s.handleLeaveTeam)
		r.Get("/teams/{name}", s.handleGetTeam)
		r.Post("/teams/{name}/join", s.handleJoinTeam)
		r.Get("/teams/{name}/sum", s.handleTeamSum)
		r.Get("/battles", s.handleListBattles)
		r.Post("/battles", s.handleCreateBattle)
		r.Get("/battles/{id}", s.handleGetBattle)
		r.Post("/battles/{id}/settle", s.handleSettleBattle)

		// Leaderboards
		r.Get("/leaderboard", s.handleLeaderboard)
		if s.mirror != nil {
			r.Get("/leaderboard/mirror", s.handleMirror)
			r.Get("/leaderboard/mirror/{id}", s.handleMirrorStanding)
		}

		// Social
		r.Post("/routes", s.handleCreateRoute)
		r.Post("/messages", s.handleSendMessage)
		r.Get("/messages", s.handleConversation)

		// Rewards
		r.Get("/rewards", s.handleListRewards)
		r.Post("/rewards/{id}/redeem", s.handleRedeem)

		// Operations
		if s.journal != nil {
			r.Get("/journal", s.handleJournal)
			r.Get("/journal/summary", s.handleJournalSummary)
		}
		if s.jobs != nil {
			r.Get("/jobs", s.handleJobs)
		}
	})

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.ExposedHeaders([]string{"Content-Length", "X-Request-Id"}),
	)
	return cors(r)
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// instrument records request metrics keyed by the matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		observability.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())

		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// ─── Responses ──────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status < 500:
		return "invalid_request"
	default:
		return "internal"
	}
}

// writeErr maps engine errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrChallengeExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyUserID),
		errors.Is(err, domain.ErrInvalidTarget),
		errors.Is(err, domain.ErrInvalidMetric),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrEmptyTeamName),
		errors.Is(err, domain.ErrSameTeam),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrEmptyRouteName),
		errors.Is(err, domain.ErrUnknownReminder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
