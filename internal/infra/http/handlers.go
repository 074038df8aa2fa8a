package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/infra/logging"
)

type premiumRequest struct {
	Premium *bool `json:"premium"`
}

type userResponse struct {
	*model.User
	UsedToday int `json:"used_today"`
	DailyCap  int `json:"daily_cap"`
}

func (s *Server) handleCountUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"total_users": s.ledger.CountUsers(r.Context())})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	tgID, ok := tgIDParam(w, r)
	if !ok {
		return
	}
	u, err := s.ledger.GetUser(r.Context(), tgID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(u))
}

func (s *Server) handleSetPremium(w http.ResponseWriter, r *http.Request) {
	tgID, ok := tgIDParam(w, r)
	if !ok {
		return
	}
	var req premiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Premium == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"premium\": bool}")
		return
	}
	u, err := s.ledger.SetPremium(r.Context(), tgID, *req.Premium)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(u))
}

func (s *Server) toResponse(u *model.User) userResponse {
	return userResponse{
		User:      u,
		UsedToday: s.ledger.UsedToday(u),
		DailyCap:  s.ledger.DailyCap(),
	}
}

func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotRegistered), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("admin request failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}

func tgIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
