package http

import (
	"context"
	"net/http"

	"weekum/internal/ledger"
)

// weekOp runs a whole-ledger operation and answers with the new summary.
// Destructive operations require confirm=true.
func (s *Server) weekOp(needConfirm bool, op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if needConfirm {
			if err := confirmed(r); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		if err := op(r.Context()); err != nil {
			s.fail(w, r, err)
			return
		}
		NewResponse().JSON(ledger.Summarize(s.store.Budgets())).Write(w)
	}
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	s.weekOp(false, s.store.RenewAll)(w, r)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.weekOp(true, s.store.ClearAllExpenses)(w, r)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.weekOp(true, s.store.RestartWeek)(w, r)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.weekOp(true, s.store.Purge)(w, r)
}
