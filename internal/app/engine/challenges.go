package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// ─── Challenge Engine ───────────────────────────────────────────────────────
// Per (user, challenge): not_joined → joined → completed, with completion
// cleared whenever the challenge's period key changes. Rewards are paid only
// on the joined → completed edge, so at most once per period.

// Challenges returns the built-in catalog followed by custom challenges in
// creation order.
func (e *Engine) Challenges() []domain.ChallengeDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.definitionsLocked()
}

// Challenge looks up a definition by id.
func (e *Engine) Challenge(id string) (domain.ChallengeDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.challengeLocked(id)
}

func (e *Engine) challengeLocked(id string) (domain.ChallengeDefinition, bool) {
	for _, c := range e.catalog {
		if c.ID == id {
			return c, true
		}
	}
	c, ok := e.custom[id]
	return c, ok
}

// JoinChallenge opts the user in. Joining an already joined challenge is a
// no-op.
func (e *Engine) JoinChallenge(userID, challengeID string) (domain.ChallengeStatus, error) {
	if userID == "" {
		return domain.ChallengeStatus{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	def, ok := e.challengeLocked(challengeID)
	if !ok {
		return domain.ChallengeStatus{}, domain.ErrChallengeNotFound
	}
	now := e.clock()
	u := e.ensureUserLocked(userID, "", now)
	p := e.progressLocked(u.ID, def, now)
	p.Joined = true
	return e.statusLocked(u.ID, def, p, now), nil
}

// LeaveChallenge opts the user out. Points already awarded are kept.
func (e *Engine) LeaveChallenge(userID, challengeID string) (domain.ChallengeStatus, error) {
	e.mu.Lock()
	defer e.unlockAndFlush()

	def, ok := e.challengeLocked(challengeID)
	if !ok {
		return domain.ChallengeStatus{}, domain.ErrChallengeNotFound
	}
	now := e.clock()
	if _, ok := e.users[userID]; !ok {
		return e.statusLocked(userID, def, nil, now), nil
	}
	p := e.progressLocked(userID, def, now)
	p.Joined = false
	return e.statusLocked(userID, def, p, now), nil
}

// Evaluate checks one challenge for one user and pays the reward if the
// target was reached. It reports whether this call completed the challenge.
func (e *Engine) Evaluate(userID, challengeID string) (bool, error) {
	e.mu.Lock()
	defer e.unlockAndFlush()

	def, ok := e.challengeLocked(challengeID)
	if !ok {
		return false, domain.ErrChallengeNotFound
	}
	u, ok := e.users[userID]
	if !ok {
		return false, nil
	}
	return e.evaluateLocked(u, def, e.clock()), nil
}

// EvaluateAll re-evaluates every challenge the user can hold and returns
// the ids completed by this call.
func (e *Engine) EvaluateAll(userID string) []string {
	e.mu.Lock()
	defer e.unlockAndFlush()
	u, ok := e.users[userID]
	if !ok {
		return nil
	}
	return e.evaluateAllLocked(u, e.clock())
}

// ProgressFor reports a user's standing in a challenge. Reading applies any
// pending period reset. Unknown users or challenges yield a zero status.
func (e *Engine) ProgressFor(userID, challengeID string) domain.ChallengeStatus {
	e.mu.Lock()
	defer e.unlockAndFlush()

	def, ok := e.challengeLocked(challengeID)
	if !ok {
		return domain.ChallengeStatus{State: domain.StateNotJoined}
	}
	now := e.clock()
	if _, ok := e.users[userID]; !ok {
		return e.statusLocked(userID, def, nil, now)
	}
	return e.statusLocked(userID, def, e.progressLocked(userID, def, now), now)
}

// Board returns the user's status for every challenge.
func (e *Engine) Board(userID string) []domain.ChallengeStatus {
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	_, known := e.users[userID]
	var out []domain.ChallengeStatus
	for _, def := range e.definitionsLocked() {
		var p *domain.ChallengeProgress
		if known {
			p = e.progressLocked(userID, def, now)
		}
		out = append(out, e.statusLocked(userID, def, p, now))
	}
	return out
}

// ─── Custom Challenges ──────────────────────────────────────────────────────

// CustomChallengeInput describes a user-created challenge.
type CustomChallengeInput struct {
	CreatedBy    string  `json:"created_by"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Metric       string  `json:"metric"`
	Target       float64 `json:"target"`
	Period       string  `json:"period"`
	Scope        string  `json:"scope"`
	RewardPoints int64   `json:"reward_points"`
}

// CreateCustomChallenge validates and registers a custom challenge. The
// creator is joined automatically.
func (e *Engine) CreateCustomChallenge(in CustomChallengeInput) (domain.ChallengeDefinition, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case in.CreatedBy == "":
		return domain.ChallengeDefinition{}, domain.ErrEmptyUserID
	case name == "":
		return domain.ChallengeDefinition{}, domain.ErrInvalidInput
	case !domain.Metric(in.Metric).Valid():
		return domain.ChallengeDefinition{}, domain.ErrInvalidMetric
	case !(in.Target > 0):
		return domain.ChallengeDefinition{}, domain.ErrInvalidTarget
	case in.RewardPoints < 0:
		return domain.ChallengeDefinition{}, domain.ErrInvalidInput
	}
	scope := domain.ScopeIndividual
	if domain.Scope(in.Scope) == domain.ScopeTeam {
		scope = domain.ScopeTeam
	}

	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	def := domain.ChallengeDefinition{
		ID:           "custom-" + slug.Make(name) + "-" + uuid.NewString()[:8],
		Name:         name,
		Description:  in.Description,
		Period:       domain.ParsePeriod(in.Period),
		RewardPoints: in.RewardPoints,
		Goal: domain.CustomGoal{
			Metric: domain.Metric(in.Metric),
			Target: in.Target,
			Scope:  scope,
		},
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
	}
	if _, exists := e.challengeLocked(def.ID); exists {
		return domain.ChallengeDefinition{}, domain.ErrChallengeExists
	}
	e.custom[def.ID] = def
	e.customOrder = append(e.customOrder, def.ID)

	u := e.ensureUserLocked(in.CreatedBy, "", now)
	e.progressLocked(u.ID, def, now).Joined = true
	observability.CustomChallenges.Inc()
	return def, nil
}

// ─── Evaluation ─────────────────────────────────────────────────────────────

func (e *Engine) definitionsLocked() []domain.ChallengeDefinition {
	out := make([]domain.ChallengeDefinition, 0, len(e.catalog)+len(e.customOrder))
	out = append(out, e.catalog...)
	for _, id := range e.customOrder {
		out = append(out, e.custom[id])
	}
	return out
}

// progressLocked returns the progress record, creating it lazily, after
// applying any period rollover.
func (e *Engine) progressLocked(userID string, def domain.ChallengeDefinition, now time.Time) *domain.ChallengeProgress {
	byChallenge, ok := e.progress[userID]
	if !ok {
		byChallenge = make(map[string]*domain.ChallengeProgress)
		e.progress[userID] = byChallenge
	}
	key := domain.PeriodKey(def.Period, now)
	p, ok := byChallenge[def.ID]
	if !ok {
		p = &domain.ChallengeProgress{ChallengeID: def.ID, PeriodKey: key}
		byChallenge[def.ID] = p
		return p
	}
	if p.Refresh(key) {
		observability.PeriodResets.WithLabelValues(string(def.Period)).Inc()
	}
	return p
}

// evaluateLocked applies the state machine for one challenge.
func (e *Engine) evaluateLocked(u *domain.User, def domain.ChallengeDefinition, now time.Time) bool {
	p := e.progressLocked(u.ID, def, now)
	if p.Completed || !p.Joined {
		return false
	}
	if !def.Goal.Measure(e.viewLocked(now), u.ID, def.Period).Met() {
		return false
	}
	p.Completed = true
	p.CompletedAt = now
	e.credit(u, def.RewardPoints, domain.TxBonus, def.ID, def.Name)
	observability.ChallengeCompletions.WithLabelValues(string(def.Kind())).Inc()
	e.log.WithField("user", u.ID).WithField("challenge", def.ID).Info("challenge completed")
	return true
}

// evaluateAllLocked re-evaluates the whole catalog plus every custom
// challenge the user has touched. Dispatch is not narrowed by event type.
func (e *Engine) evaluateAllLocked(u *domain.User, now time.Time) []string {
	completed := []string{}
	for _, def := range e.catalog {
		if e.evaluateLocked(u, def, now) {
			completed = append(completed, def.ID)
		}
	}
	touched := e.progress[u.ID]
	for _, id := range e.customOrder {
		if _, ok := touched[id]; !ok {
			continue
		}
		if e.evaluateLocked(u, e.custom[id], now) {
			completed = append(completed, id)
		}
	}
	return completed
}

func (e *Engine) statusLocked(userID string, def domain.ChallengeDefinition, p *domain.ChallengeProgress, now time.Time) domain.ChallengeStatus {
	m := def.Goal.Measure(e.viewLocked(now), userID, def.Period)
	st := domain.ChallengeStatus{
		Challenge: def,
		State:     domain.StateNotJoined,
		PeriodKey: domain.PeriodKey(def.Period, now),
		Progress:  m,
		Percent:   m.Percent(),
	}
	if p != nil {
		st.State = p.State()
		st.Joined = p.Joined
		st.Completed = p.Completed
	}
	return st
}
