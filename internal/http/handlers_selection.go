package http

import (
	"net/http"

	"github.com/google/uuid"

	"weekum/internal/core"
)

type selectRequest struct {
	BudgetID uuid.UUID `json:"budget_id"`
}

type selectionResponse struct {
	Selected bool         `json:"selected"`
	Budget   *core.Budget `json:"budget,omitempty"`
}

func (s *Server) writeSelection(w http.ResponseWriter) {
	var resp selectionResponse
	if b, ok := s.store.CurrentBudget(); ok {
		resp = selectionResponse{Selected: true, Budget: &b}
	}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	s.writeSelection(w)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.BudgetID == uuid.Nil {
		s.fail(w, r, &core.ValidationError{Field: "budget_id", Err: core.ErrMissingID})
		return
	}
	if err := s.store.SelectBudget(r.Context(), req.BudgetID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearSelection(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
