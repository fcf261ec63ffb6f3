package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// ─── Routes ─────────────────────────────────────────────────────────────────

// CreateRoute stores a route and marks its name as explored this month.
func (e *Engine) CreateRoute(userID, name string, distanceKm float64, notes string) (domain.Route, error) {
	name = strings.TrimSpace(name)
	if userID == "" {
		return domain.Route{}, domain.ErrEmptyUserID
	}
	if name == "" {
		return domain.Route{}, domain.ErrEmptyRouteName
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	u := e.ensureUserLocked(userID, "", now)
	r := domain.Route{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		DistanceKm: clampFloat(distanceKm),
		Notes:      notes,
		CreatedAt:  now,
	}
	e.routes = append(e.routes, r)
	u.TouchRoute(domain.PeriodKey(domain.PeriodMonthly, now), name)
	return r, nil
}

// DeleteRoute removes every route of the user with that name and returns
// how many were removed. The monthly explored set is not shrunk.
func (e *Engine) DeleteRoute(userID, name string) (int, error) {
	e.mu.Lock()
	defer e.unlockAndFlush()

	kept := e.routes[:0]
	removed := 0
	for _, r := range e.routes {
		if r.UserID == userID && r.Name == name {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	e.routes = kept
	if removed == 0 {
		return 0, domain.ErrRouteNotFound
	}
	return removed, nil
}

// Routes lists a user's routes in creation order.
func (e *Engine) Routes(userID string) []domain.Route {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.Route
	for _, r := range e.routes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// ─── Messages ───────────────────────────────────────────────────────────────

// SendMessage delivers a direct message.
func (e *Engine) SendMessage(from, to, text string) (domain.Message, error) {
	if from == "" || to == "" {
		return domain.Message{}, domain.ErrEmptyUserID
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	e.ensureUserLocked(from, "", now)
	e.ensureUserLocked(to, "", now)
	e.msgSeq++
	m := domain.Message{
		ID:     uuid.NewString(),
		From:   from,
		To:     to,
		Text:   text,
		SentAt: now,
		Seq:    e.msgSeq,
	}
	e.messages = append(e.messages, m)
	observability.MessagesSent.Inc()
	return m, nil
}

// Conversation returns the messages between a and b in either direction,
// ordered by send time and then send order.
func (e *Engine) Conversation(a, b string) []domain.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.Message
	for _, m := range e.messages {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// Rewards returns the reward catalog.
func (e *Engine) Rewards() []domain.Reward {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Reward, 0, len(e.rewardOrder))
	for _, id := range e.rewardOrder {
		out = append(out, e.rewards[id])
	}
	return out
}

// RedeemReward spends points on a reward. Rejections leave the balance
// untouched and are reported through the result status.
func (e *Engine) RedeemReward(userID, rewardID string) domain.RedeemResult {
	e.mu.Lock()
	defer e.unlockAndFlush()

	u, known := e.users[userID]
	var balance int64
	if known {
		balance = u.Points
	}
	reward, ok := e.rewards[rewardID]
	if !ok {
		return e.redeemOutcome(domain.RedeemResult{Status: domain.RedeemUnknown, Balance: balance})
	}
	if !known || balance < reward.Cost {
		return e.redeemOutcome(domain.RedeemResult{Status: domain.RedeemInsufficient, Balance: balance})
	}
	if !domain.TierFor(balance).AtLeast(reward.MinTier) {
		return e.redeemOutcome(domain.RedeemResult{Status: domain.RedeemTierLocked, Balance: balance})
	}

	now := e.clock()
	e.debit(u, reward.Cost, reward.ID, reward.Name)
	red := domain.Redemption{
		ID:         uuid.NewString(),
		UserID:     userID,
		RewardID:   reward.ID,
		Cost:       reward.Cost,
		RedeemedAt: now,
	}
	e.redemptions = append(e.redemptions, red)
	return e.redeemOutcome(domain.RedeemResult{Status: domain.RedeemOK, Balance: u.Points, Redemption: &red})
}

// Redemptions lists a user's redemptions.
func (e *Engine) Redemptions(userID string) []domain.Redemption {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.Redemption
	for _, r := range e.redemptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) redeemOutcome(r domain.RedeemResult) domain.RedeemResult {
	observability.Redemptions.WithLabelValues(string(r.Status)).Inc()
	if !r.OK() {
		e.log.WithField("status", r.Status).Debug("redemption rejected")
	}
	return r
}
