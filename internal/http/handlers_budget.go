package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
	"weekum/internal/ledger"
)

type createBudgetRequest struct {
	Name      string `json:"name"`
	Allowance Amount `json:"allowance"`
}

type resetBudgetRequest struct {
	Allowance Amount `json:"allowance"`
}

type budgetListResponse struct {
	ledger.Summary
	Selected *uuid.UUID `json:"selected,omitempty"`
}

type budgetResponse struct {
	Budget  core.Budget     `json:"budget"`
	Rows    []ledger.Row    `json:"rows"`
	Spent   decimal.Decimal `json:"spent"`
	Balance decimal.Decimal `json:"balance"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	resp := budgetListResponse{Summary: ledger.Summarize(s.store.Budgets())}
	if id, ok := s.store.Selection(); ok {
		resp.Selected = &id
	}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	allowance, err := req.Allowance.Decimal("allowance")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.store.CreateBudget(r.Context(), req.Name, allowance)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/budgets/"+b.ID.String()).
		JSON(b).
		Write(w)
}

// handleGetBudget returns the budget with its expenses and the balance
// after each one.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	snap := s.coord.Snapshot(id)
	if snap.Deleted {
		s.fail(w, r, &core.NotFoundError{Kind: "budget", ID: id.String()})
		return
	}
	NewResponse().JSON(budgetResponse{
		Budget:  snap.Budget,
		Rows:    snap.Rows,
		Spent:   snap.Spent,
		Balance: snap.Budget.Allowance.Sub(snap.Spent),
	}).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleResetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req resetBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	allowance, err := req.Allowance.Decimal("allowance")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.ResetBudget(r.Context(), id, allowance); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.store.Budget(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().JSON(b).Write(w)
}
