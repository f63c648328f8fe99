package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
)

// Store keeps records in process memory, in first-saved order.
type Store struct {
	mu        sync.Mutex
	budgets   []core.Budget
	expenses  []core.Expense
	selection uuid.UUID
}

func New(budgets ...core.Budget) *Store {
	return &Store{budgets: append([]core.Budget(nil), budgets...)}
}

// NewFromFiles seeds budgets from base/seed_budgets.txt. Each line is
// "Name=allowance" or just "Name" (allowance 0). Blank lines, comments and
// malformed allowances are skipped; the first entry for a name wins.
func NewFromFiles(base string) *Store {
	var budgets []core.Budget
	seen := map[string]struct{}{}
	for _, line := range readLines(filepath.Join(base, "seed_budgets.txt")) {
		name, raw, _ := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		allowance := decimal.Zero
		if strings.TrimSpace(raw) != "" {
			d, err := core.ParseDecimal("allowance", raw)
			if err != nil || core.ValidateAllowance(d) != nil {
				continue
			}
			allowance = d
		}
		seen[name] = struct{}{}
		budgets = append(budgets, core.Budget{
			ID:              uuid.New(),
			Name:            name,
			Allowance:       allowance,
			CumulativeTotal: allowance,
		})
	}
	return New(budgets...)
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == b.ID {
			s.budgets[i] = b
			return nil
		}
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) SaveExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == e.ID {
			s.expenses[i] = e
			return nil
		}
	}
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) LoadSelection(_ context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, nil
}

func (s *Store) SaveSelection(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = id
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
