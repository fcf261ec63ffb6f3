package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Teams ──────────────────────────────────────────────────────────────────

// GET /api/teams
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": s.eng.Teams()})
}

// GET /api/teams/{name}
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	t, ok := s.eng.Team(chi.URLParam(r, "name"))
	if !ok {
		writeErr(w, domain.ErrTeamNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// POST /api/teams/{name}/join
func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.eng.JoinTeam(req.UserID, chi.URLParam(r, "name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// POST /api/teams/leave
func (s *Server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErr(w, domain.ErrEmptyUserID)
		return
	}
	s.eng.LeaveTeam(req.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/teams/{name}/sum?metric=miles&start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Server) handleTeamSum(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := domain.Metric(q.Get("metric"))
	if metric == "" {
		metric = domain.MetricMiles
	}
	if !metric.Valid() {
		writeErr(w, domain.ErrInvalidMetric)
		return
	}
	start, end, err := s.parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeErr(w, err)
		return
	}
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"team":   name,
		"metric": metric,
		"start":  domain.DateKey(start),
		"end":    domain.DateKey(end),
		"total":  s.eng.TeamMetricSum(name, metric, start, end),
	})
}

// parseRange parses an inclusive date range in the engine's time zone.
func (s *Server) parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	loc := s.eng.Now().Location()
	start, err := domain.ParseDate(startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	end, err := domain.ParseDate(endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return start, end, nil
}

// ─── Battles ────────────────────────────────────────────────────────────────

type battleRequest struct {
	TeamA        string `json:"team_a"`
	TeamB        string `json:"team_b"`
	Start        string `json:"start"`
	End          string `json:"end"`
	RewardPoints int64  `json:"reward_points"`
}

// POST /api/battles
func (s *Server) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var req battleRequest
	if !decode(w, r, &req) {
		return
	}
	start, end, err := s.parseRange(req.Start, req.End)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, err := s.eng.CreateTeamBattle(engine.BattleInput{
		TeamA:        req.TeamA,
		TeamB:        req.TeamB,
		Start:        start,
		End:          end,
		RewardPoints: req.RewardPoints,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/battles
func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"battles": s.eng.Battles()})
}

// GET /api/battles/{id}
func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	b, ok := s.eng.Battle(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "battle not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// POST /api/battles/{id}/settle
func (s *Server) handleSettleBattle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.eng.Battle(id); !ok {
		writeError(w, http.StatusNotFound, "battle not found")
		return
	}
	b, settled := s.eng.Settle(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"settled": settled, "battle": b})
}

// ─── Routes & Messages ──────────────────────────────────────────────────────

type routeRequest struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
	Notes      string  `json:"notes"`
}

// POST /api/routes
func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decode(w, r, &req) {
		return
	}
	route, err := s.eng.CreateRoute(req.UserID, req.Name, req.DistanceKm, req.Notes)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, route)
}

// GET /api/users/{id}/routes
func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.eng.Routes(chi.URLParam(r, "id"))
	if routes == nil {
		routes = []domain.Route{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"routes": routes})
}

// DELETE /api/users/{id}/routes/{name}
func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	n, err := s.eng.DeleteRoute(chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

type messageRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// POST /api/messages
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.eng.SendMessage(req.From, req.To, req.Text)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GET /api/messages?a=&b=
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msgs := s.eng.Conversation(q.Get("a"), q.Get("b"))
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// GET /api/rewards
func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": s.eng.Rewards()})
}

// POST /api/rewards/{id}/redeem
// Rejections are reported in the result body with 200 OK, except unknown
// rewards which are 404.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErr(w, domain.ErrEmptyUserID)
		return
	}
	res := s.eng.RedeemReward(req.UserID, chi.URLParam(r, "id"))
	status := http.StatusOK
	if res.Status == domain.RedeemUnknown {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

// GET /api/users/{id}/redemptions
func (s *Server) handleRedemptions(w http.ResponseWriter, r *http.Request) {
	reds := s.eng.Redemptions(chi.URLParam(r, "id"))
	if reds == nil {
		reds = []domain.Redemption{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"redemptions": reds})
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// GET /api/users/{id}/reminders
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	rs, err := s.eng.Reminders(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// PUT /api/users/{id}/reminders
func (s *Server) handleUpdateReminders(w http.ResponseWriter, r *http.Request) {
	var settings domain.ReminderSettings
	if !decode(w, r, &settings) {
		return
	}
	rs, err := s.eng.UpdateReminders(chi.URLParam(r, "id"), settings)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// GET /api/users/{id}/reminders/due
func (s *Server) handleDueReminders(w http.ResponseWriter, r *http.Request) {
	due := s.eng.DueReminders(chi.URLParam(r, "id"))
	if due == nil {
		due = []domain.ReminderKind{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"due": due})
}

// POST /api/users/{id}/reminders/{kind}/{action}   action: ack | snooze | dismiss
func (s *Server) handleReminderAction(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "id")
	kind := domain.ReminderKind(chi.URLParam(r, "kind"))

	var (
		rs  domain.ReminderState
		err error
	)
	switch chi.URLParam(r, "action") {
	case "ack":
		rs, err = s.eng.AckReminder(user, kind)
	case "snooze":
		rs, err = s.eng.SnoozeReminder(user, kind)
	case "dismiss":
		rs, err = s.eng.DismissReminder(user, kind)
	default:
		writeError(w, http.StatusBadRequest, "action must be ack, snooze or dismiss")
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}
