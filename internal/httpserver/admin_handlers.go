package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
	"scholarfund/internal/core/service"
)

func (s *Server) adminContext(w http.ResponseWriter, r *http.Request) (domain.AuthUser, bool) {
	user, ok := authUserFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return domain.AuthUser{}, false
	}
	if err := s.guard.RequireAdmin(user); err != nil {
		writeError(w, err)
		return domain.AuthUser{}, false
	}
	return user, true
}

func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminContext(w, r); !ok {
		return
	}

	sort := ports.QueueSortFIFO
	if r.URL.Query().Get("sort") == "risk" {
		sort = ports.QueueSortRisk
	}

	records, err := s.store.ListReviewQueue(r.Context(), sort, 50)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]verificationDTO, 0, len(records))
	for _, v := range records {
		out = append(out, toDTO(v, true))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminGetVerification(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminContext(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}
	v, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(v, true))
}

type adminActionRequest struct {
	Action    string   `json:"action"`
	Reason    string   `json:"reason,omitempty"`
	Message   string   `json:"message,omitempty"`
	RiskFlags []string `json:"riskFlags,omitempty"`
}

// handleAdminAction is the review decision endpoint. The action name
// only picks the target status; legality of the edge (and of APPROVE vs
// LIFT_SUSPENSION, which share a target) is still the transition
// table's call.
func (s *Server) handleAdminAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminContext(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	var req adminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	target, ok := domain.ActionToStatus(domain.AdminAction(req.Action))
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "unknown action")
		return
	}

	// Needed for the rejection cooldown below; Execute re-reads under
	// its own version check.
	v, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		Actor:          domain.ActorAdmin,
		To:             target,
		Reason:         req.Reason,
		Message:        req.Message,
		RiskFlags:      req.RiskFlags,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// A rejection opens the reapplication window. The state machine
	// stays ignorant of it; only the self-service reapply path checks.
	if target == domain.StatusRejected {
		if err := s.cooldowns.StartCooldown(r.Context(), reapplyCooldownKey, v.UserID, s.reapplyCooldown); err != nil {
			s.log.Error().Err(err).Str("user_id", v.UserID.String()).Msg("Failed to start reapplication cooldown")
		}
	}

	writeJSON(w, http.StatusOK, res)
}

type noteRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleAppendNote(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.adminContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "note body is required")
		return
	}

	note := domain.InternalNote{
		ID:        uuid.New(),
		AuthorID:  admin.ID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendNote(r.Context(), id, note); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteDTO{
		ID:        note.ID.String(),
		AuthorID:  note.AuthorID.String(),
		Body:      note.Body,
		CreatedAt: note.CreatedAt,
	})
}

type documentVerifiedRequest struct {
	Verified bool `json:"verified"`
}

func (s *Server) handleSetDocumentVerified(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminContext(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}
	docID, ok := pathUUID(w, r, "docID")
	if !ok {
		return
	}

	var req documentVerifiedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.store.SetDocumentVerified(r.Context(), id, docID, req.Verified); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": req.Verified})
}

// handleCampaignStats backs the confirmation dialog shown before an
// irreversible decision.
func (s *Server) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminContext(w, r); !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	stats, err := s.fate.UserCampaignStats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
