package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
	"scholarfund/internal/core/service"
)

const reapplyCooldownKey = "reapply"

// studentContext resolves the caller and gates the self-service surface.
func (s *Server) studentContext(w http.ResponseWriter, r *http.Request) (domain.AuthUser, bool) {
	user, ok := authUserFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return domain.AuthUser{}, false
	}
	if err := s.guard.RequireStudent(user); err != nil {
		writeError(w, err)
		return domain.AuthUser{}, false
	}
	return user, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		// A malformed ID can't exist, so it gets the same answer as an
		// unknown one.
		writeError(w, domain.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

type startVerificationRequest struct {
	FullName           string `json:"fullName"`
	DateOfBirth        string `json:"dateOfBirth"`
	Country            string `json:"country"`
	Institution        string `json:"institution"`
	DegreeProgram      string `json:"degreeProgram"`
	ExpectedGradYear   int    `json:"expectedGradYear"`
	GovernmentIDNumber string `json:"governmentIdNumber"`
}

func (s *Server) handleStartVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}

	var req startVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.FullName == "" || req.Institution == "" || req.Country == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "fullName, institution and country are required")
		return
	}

	v, err := s.store.CreateDraft(r.Context(), user.ID, domain.StudentProfile{
		FullName:           req.FullName,
		DateOfBirth:        req.DateOfBirth,
		Country:            req.Country,
		Institution:        req.Institution,
		DegreeProgram:      req.DegreeProgram,
		ExpectedGradYear:   req.ExpectedGradYear,
		GovernmentIDNumber: req.GovernmentIDNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(v, false))
}

func (s *Server) handleGetOwnVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	v, err := s.store.GetActiveByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(v, false))
}

func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}
	v, err := s.guard.OwnedVerification(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(v, false))
}

// handleSubmit moves a draft into the review queue. At least one
// document must be attached before review makes sense.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	v, err := s.guard.OwnedVerification(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(v.Documents) == 0 {
		writeErrorMsg(w, http.StatusUnprocessableEntity, "missing_documents", "attach at least one document before submitting")
		return
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		OwnerID:        user.ID,
		Actor:          domain.ActorUser,
		To:             domain.StatusPendingReview,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if perr := s.bus.Publish(r.Context(), ports.TopicVerificationSubmitted, res); perr != nil {
		s.log.Error().Err(perr).Msg("Failed to publish submission event")
	}
	writeJSON(w, http.StatusOK, res)
}

type infoRequest struct {
	Message string `json:"message"`
}

// handleProvideInfo answers a NEEDS_MORE_INFO request and puts the
// record back in the queue.
func (s *Server) handleProvideInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	var req infoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		OwnerID:        user.ID,
		Actor:          domain.ActorUser,
		To:             domain.StatusPendingReview,
		Message:        req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		OwnerID:        user.ID,
		Actor:          domain.ActorUser,
		To:             domain.StatusAbandoned,
		Reason:         "abandoned by user",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRestart reopens an abandoned record. Reopening counts against
// the one-open-record rule the same way starting a draft does: if the
// user opened a fresh record since abandoning this one, the restart is
// refused rather than leaving them with two.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	if _, err := s.store.GetActiveByUser(r.Context(), user.ID); err == nil {
		writeError(w, domain.ErrAlreadyExists)
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		writeError(w, err)
		return
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		OwnerID:        user.ID,
		Actor:          domain.ActorUser,
		To:             domain.StatusDraft,
		Reason:         "restarted by user",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReapply re-enters the queue after a rejection or expiry. A
// rejection opens a cooldown window (started when the admin rejected);
// the state machine itself knows nothing about it.
func (s *Server) handleReapply(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	v, err := s.guard.OwnedVerification(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if v.Status == domain.StatusRejected {
		active, remaining, err := s.cooldowns.InCooldown(r.Context(), reapplyCooldownKey, user.ID)
		if err != nil {
			s.log.Error().Err(err).Msg("Cooldown lookup failed; refusing reapplication")
			writeError(w, err)
			return
		}
		if active {
			s.log.Info().Str("user_id", user.ID.String()).Dur("remaining", remaining).Msg("Reapplication inside cooldown window")
			writeError(w, domain.ErrCooldownActive)
			return
		}
	}

	res, err := s.transitions.Execute(r.Context(), service.TransitionRequest{
		VerificationID: id,
		OwnerID:        user.ID,
		Actor:          domain.ActorUser,
		To:             domain.StatusPendingReview,
		Reason:         "reapplication",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type appendDocumentRequest struct {
	DocumentType string `json:"documentType"`
	FileRef      string `json:"fileRef"`
}

func (s *Server) handleAppendDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "verificationID")
	if !ok {
		return
	}

	var req appendDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	docType := domain.DocumentType(req.DocumentType)
	switch docType {
	case domain.DocStudentID, domain.DocEnrollmentLetter, domain.DocTranscript,
		domain.DocGovernmentID, domain.DocTuitionInvoice:
	default:
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "unknown document type")
		return
	}
	if req.FileRef == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "fileRef is required")
		return
	}

	// Ownership first; the append itself is unscoped.
	if _, err := s.guard.OwnedVerification(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}

	doc := domain.VerificationDoc{
		ID:           uuid.New(),
		DocumentType: docType,
		FileRef:      req.FileRef,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.store.AppendDocument(r.Context(), id, doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentDTO{
		ID:           doc.ID.String(),
		DocumentType: string(doc.DocumentType),
		FileRef:      doc.FileRef,
		IsVerified:   doc.IsVerified,
		UploadedAt:   doc.UploadedAt,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := s.studentContext(w, r)
	if !ok {
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

	_, doc, err := s.guard.OwnedDocument(r.Context(), id, docID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentDTO{
		ID:           doc.ID.String(),
		DocumentType: string(doc.DocumentType),
		FileRef:      doc.FileRef,
		IsVerified:   doc.IsVerified,
		UploadedAt:   doc.UploadedAt,
	})
}
