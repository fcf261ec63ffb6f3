// Package observability holds the Prometheus metrics, the structured logger,
// and an in-memory log of background job runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric.
const Namespace = "walkbuddy"

// ═══════════════════════════════════════════════════════════════════════════
// Engine Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Activity ───────────────────────────────────────────────────────────────

// WalksRecorded counts logged walks.
var WalksRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "walks_recorded_total",
	Help:      "Total walks logged.",
})

// StreakLength observes the streak length at each logged walk.
var StreakLength = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "streak_days",
	Help:      "Streak length in days at the time a walk is logged.",
	Buckets:   []float64{1, 2, 3, 7, 14, 30, 60, 100},
})

// InvitesSent counts friend invitations.
var InvitesSent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "invites_sent_total",
	Help:      "Total friend invitations sent.",
})

// MessagesSent counts direct messages.
var MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "messages_sent_total",
	Help:      "Total direct messages sent.",
})

// UsersTotal tracks known users.
var UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "users",
	Help:      "Number of known users.",
})

// TeamsTotal tracks known teams.
var TeamsTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: Namespace,
	Subsystem: "activity",
	Name:      "teams",
	Help:      "Number of known teams.",
})

// ─── Points ─────────────────────────────────────────────────────────────────

// PointsAwarded counts points credited by transaction type.
var PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "points",
	Name:      "awarded_total",
	Help:      "Total points credited by transaction type.",
}, []string{"type"})

// PointsSpent counts points debited by redemptions.
var PointsSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "points",
	Name:      "spent_total",
	Help:      "Total points spent on rewards.",
})

// Redemptions counts redemption attempts by outcome.
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "points",
	Name:      "redemptions_total",
	Help:      "Reward redemption attempts by status.",
}, []string{"status"})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeCompletions counts completions by challenge kind.
var ChallengeCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "challenges",
	Name:      "completions_total",
	Help:      "Challenge completions by kind.",
}, []string{"kind"})

// PeriodResets counts progress records reset by a period rollover.
var PeriodResets = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "challenges",
	Name:      "period_resets_total",
	Help:      "Challenge progress resets by period.",
}, []string{"period"})

// CustomChallenges counts user-created challenges.
var CustomChallenges = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "challenges",
	Name:      "custom_created_total",
	Help:      "Total custom challenges created.",
})

// BattlesSettled counts settled team battles by outcome (win, draw).
var BattlesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "challenges",
	Name:      "battles_settled_total",
	Help:      "Team battles settled by outcome.",
}, []string{"outcome"})

// ─── Reminders ──────────────────────────────────────────────────────────────

// RemindersDue counts due reminders seen by the reminder poll.
var RemindersDue = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "reminders",
	Name:      "due_total",
	Help:      "Due reminders observed by polling, by kind.",
}, []string{"kind"})

// ─── Sinks ──────────────────────────────────────────────────────────────────

// SinkErrors counts failed deliveries to ledger sinks and publishers.
var SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "sinks",
	Name:      "errors_total",
	Help:      "Failed sink deliveries by sink.",
}, []string{"sink"})

// ═══════════════════════════════════════════════════════════════════════════
// HTTP Metrics
// ═══════════════════════════════════════════════════════════════════════════

// HTTPRequests counts API requests by route pattern, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests.",
}, []string{"route", "method", "status"})

// HTTPDuration observes request latency by route pattern and method.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: Namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})
