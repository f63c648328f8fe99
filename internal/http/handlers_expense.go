package http

import (
	"net/http"
	"time"

	"weekum/internal/core"
)

type createExpenseRequest struct {
	Amount Amount `json:"amount"`
	// Date is optional; the server clock is used when it is absent.
	Date *time.Time `json:"date,omitempty"`
}

type expenseResponse struct {
	Expense core.Expense `json:"expense"`
	Budget  core.Budget  `json:"budget"`
}

// handleCreateExpense records a spend against the budget in the path.
// Amounts are rounded up to whole units.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	e, err := s.store.CreateExpense(r.Context(), budgetID, amount, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.store.Budget(budgetID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		JSON(expenseResponse{Expense: e, Budget: b}).
		Write(w)
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.store.RemoveExpense(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
