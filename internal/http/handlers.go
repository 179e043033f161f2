package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

type optionsResponse struct {
	Types      []core.TxType       `json:"types"`
	Modes      []core.Mode         `json:"modes"`
	Categories map[string][]string `json:"categories"`
}

type periodsResponse struct {
	Current core.PartitionKey   `json:"current"`
	Periods []core.PartitionKey `json:"periods"`
}

type createdResponse struct {
	Partition core.PartitionKey `json:"partition"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("shutting down"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	resp := optionsResponse{
		Types:      core.Types(),
		Modes:      core.Modes(),
		Categories: make(map[string][]string, 2),
	}
	for _, t := range core.Types() {
		resp.Categories[string(t)] = core.CategoriesFor(t)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	keys, err := s.ledger.Periods(r.Context(), now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, periodsResponse{
		Current: s.ledger.CurrentPeriod(now),
		Periods: keys,
	})
}

// handleTransactions always answers 200; an unreadable partition comes back
// empty with a warning.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	key, err := s.partitionParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.ledger.GetPeriodView(r.Context(), key))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key, err := s.partitionParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	criteria := services.Criteria{
		From:     from,
		To:       to,
		Category: sanitizeInput(r.URL.Query().Get("category")),
	}
	view := s.ledger.GetPeriodView(r.Context(), key)
	writeJSON(w, r, http.StatusOK, s.ledger.Summary(view, criteria))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid transaction", fieldErrors(err))
		return
	}
	c, err := req.candidate()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	key, err := s.ledger.AddTransaction(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, createdResponse{Partition: key})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := s.partitionParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.ledger.RemoveTransactions(r.Context(), key, req.Indices); err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transactions removed",
		log.FieldPartition, key.String(),
		log.FieldIndices, req.Indices)
	w.WriteHeader(http.StatusNoContent)
}
