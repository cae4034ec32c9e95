package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cat := s.ledger.Catalog()
	writeJSON(w, http.StatusOK, categoriesResponse{
		Categories: cat.All(),
		Default:    cat.Default().Value,
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.Entries(r.Context())
	if err != nil {
		s.internalError(w, r, log.OpList, err)
		return
	}

	resp := entriesResponse{
		Entries: make([]entryResponse, 0, len(entries)),
		Count:   len(entries),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createEntryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := s.ledger.Append(r.Context(), ledger.Request{
		Kind:     sanitizeInput(req.Kind),
		Amount:   sanitizeInput(string(req.Amount)),
		Category: sanitizeInput(req.Category),
	})
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "amount must be a non-negative number within range")
		return
	case errors.Is(err, core.ErrInvalidKind):
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	case errors.Is(err, ledger.ErrDuplicateID):
		writeError(w, http.StatusConflict, "entry id already used")
		return
	case err != nil:
		s.internalError(w, r, log.OpAppend, err)
		return
	}

	w.Header().Set("Location", "/api/entries")
	writeJSON(w, http.StatusCreated, toEntryResponse(e))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.Totals(r.Context())
	if err != nil {
		s.internalError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(totals))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	writeError(w, http.StatusInternalServerError, "internal error")
}
