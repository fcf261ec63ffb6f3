package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Activity ───────────────────────────────────────────────────────────────

// handleRecordWalk logs a walk.
// POST /api/walks
func (s *Server) handleRecordWalk(w http.ResponseWriter, r *http.Request) {
	var in engine.WalkInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.eng.RecordWalk(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type inviteRequest struct {
	UserID string `json:"user_id"`
	Friend string `json:"friend"`
}

// handleSendInvite records an invitation.
// POST /api/invites
func (s *Server) handleSendInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.eng.SendInvite(req.UserID, req.Friend)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/rules
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Rules())
}

// ─── Users ──────────────────────────────────────────────────────────────────

// GET /api/users/{id}
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.eng.Profile(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /api/users/{id}
func (s *Server) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := s.eng.EnsureUser(chi.URLParam(r, "id"), req.DisplayName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/users/{id}/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.eng.History(chi.URLParam(r, "id"), queryInt(r, "limit", 50))
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// GET /api/users/{id}/invites
func (s *Server) handleInvites(w http.ResponseWriter, r *http.Request) {
	invites := s.eng.Invites(chi.URLParam(r, "id"))
	if invites == nil {
		invites = []domain.Invite{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invites": invites})
}

// handleEvaluateAll re-checks every challenge the user can hold.
// POST /api/users/{id}/evaluate
func (s *Server) handleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.eng.Profile(id); !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"completed": s.eng.EvaluateAll(id)})
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// GET /api/challenges
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": s.eng.Challenges()})
}

// POST /api/challenges
func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var in engine.CustomChallengeInput
	if !decode(w, r, &in) {
		return
	}
	def, err := s.eng.CreateCustomChallenge(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// GET /api/challenges/{id}
func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	def, ok := s.eng.Challenge(chi.URLParam(r, "id"))
	if !ok {
		writeErr(w, domain.ErrChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

type userRequest struct {
	UserID string `json:"user_id"`
}

// POST /api/challenges/{id}/join
func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.eng.JoinChallenge(req.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// POST /api/challenges/{id}/leave
func (s *Server) handleLeaveChallenge(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.eng.LeaveChallenge(req.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// POST /api/challenges/{id}/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	completed, err := s.eng.Evaluate(req.UserID, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed": completed,
		"status":    s.eng.ProgressFor(req.UserID, id),
	})
}

// GET /api/challenges/{id}/progress?user_id=
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.eng.Challenge(id); !ok {
		writeErr(w, domain.ErrChallengeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.eng.ProgressFor(r.URL.Query().Get("user_id"), id))
}

// GET /api/users/{id}/challenges
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": s.eng.Board(chi.URLParam(r, "id"))})
}

// ─── Leaderboards ───────────────────────────────────────────────────────────

// GET /api/leaderboard?type=users|teams&limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind, ok := leaderboardType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be users or teams")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":    kind,
		"entries": s.eng.Leaderboard(kind, queryInt(r, "limit", 10)),
	})
}

// GET /api/leaderboard/mirror?type=users|teams&limit=N
func (s *Server) handleMirror(w http.ResponseWriter, r *http.Request) {
	kind, ok := leaderboardType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be users or teams")
		return
	}
	rows, err := s.mirror.Top(r.Context(), kind, queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if rows == nil {
		rows = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"type": kind, "entries": rows})
}

// GET /api/leaderboard/mirror/{id}?type=users|teams
func (s *Server) handleMirrorStanding(w http.ResponseWriter, r *http.Request) {
	kind, ok := leaderboardType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be users or teams")
		return
	}
	id := chi.URLParam(r, "id")
	pts, found, err := s.mirror.Score(r.Context(), kind, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not on the mirrored board")
		return
	}
	pos, _, err := s.mirror.Position(r.Context(), kind, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":     kind,
		"id":       id,
		"points":   pts,
		"position": pos + 1,
	})
}

func leaderboardType(r *http.Request) (domain.LeaderboardType, bool) {
	switch t := domain.LeaderboardType(r.URL.Query().Get("type")); t {
	case "", domain.LeaderboardUsers:
		return domain.LeaderboardUsers, true
	case domain.LeaderboardTeams:
		return t, true
	default:
		return "", false
	}
}

// ─── Operations ─────────────────────────────────────────────────────────────

// GET /api/journal?account=&limit=N
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.ListEntries(r.Context(), r.URL.Query().Get("account"), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// GET /api/journal/summary
func (s *Server) handleJournalSummary(w http.ResponseWriter, r *http.Request) {
	sums, err := s.journal.Summaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byType, err := s.journal.CountByType(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": sums, "by_type": byType})
}

// GET /api/jobs?limit=N
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": s.jobs.Len(),
		"runs":  s.jobs.Runs(queryInt(r, "limit", 50)),
	})
}
