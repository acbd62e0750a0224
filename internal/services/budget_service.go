package services

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jorgenomente/hucha/internal/budget"
	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/logger"
	"github.com/jorgenomente/hucha/internal/models"
)

// budgetService resolves users to their budget, keeps one hydrated
// budget.Store per budget, and writes every store change back to the
// budget's snapshot row.
type budgetService struct {
	db     *gorm.DB
	mu     sync.Mutex
	stores map[uint]*budget.Store
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, stores: make(map[uint]*budget.Store)}
}

// budgetFor returns the budget a user operates on: the budget of their most
// recent membership, so accepting an invite switches them onto the shared
// budget while their own stays behind.
func (s *budgetService) budgetFor(userID uint) (*models.Budget, error) {
	var member models.BudgetMember
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var b models.Budget
	if err := s.db.First(&b, member.BudgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &b, nil
}

// storeFor returns the hydrated store for the user's budget, creating and
// caching it on first use.
func (s *budgetService) storeFor(userID uint) (*models.Budget, *budget.Store, error) {
	b, err := s.budgetFor(userID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[b.ID]; ok {
		return b, st, nil
	}
	st := s.hydrate(b)
	s.stores[b.ID] = st
	return b, st, nil
}

// hydrate loads a budget's snapshot row. A missing row or an undecodable
// snapshot degrades to an empty snapshot; hydration never fails.
func (s *budgetService) hydrate(b *models.Budget) *budget.Store {
	snap := budget.NewSnapshot(time.Now())

	var state models.BudgetState
	err := s.db.Where("budget_id = ?", b.ID).First(&state).Error
	switch {
	case err == nil:
		decoded, decodeErr := budget.Decode(state.Data)
		if decodeErr != nil {
			logger.Get().Warnw("unreadable budget snapshot, starting empty",
				"budget_id", b.ID, "error", decodeErr)
		} else {
			snap = decoded
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First use of this budget.
	default:
		logger.Get().Errorw("load budget snapshot", "budget_id", b.ID, "error", err)
	}

	if snap.BudgetName == "" {
		snap.BudgetName = b.Name
	}

	st := budget.NewStore(snap)
	budgetID := b.ID
	st.Subscribe(func() { s.persist(budgetID, st) })
	return st
}

// persist overwrites the budget's snapshot row. Failures are logged only:
// in-memory state stays correct for the session and the next successful
// mutation writes the full snapshot again.
func (s *budgetService) persist(budgetID uint, st *budget.Store) {
	data, err := budget.Encode(st.Export())
	if err != nil {
		logger.Get().Errorw("encode budget snapshot", "budget_id", budgetID, "error", err)
		return
	}

	state := models.BudgetState{BudgetID: budgetID, Data: data}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "budget_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		logger.Get().Errorw("persist budget snapshot", "budget_id", budgetID, "error", err)
	}
}

// Overview returns the budget's identity and selected period.
func (s *budgetService) Overview(userID uint) (*BudgetOverview, error) {
	b, st, err := s.storeFor(userID)
	if err != nil {
		return nil, err
	}
	p := st.CurrentPeriod()
	return &BudgetOverview{
		BudgetID:    b.ID,
		Name:        st.BudgetName(),
		Year:        p.Year,
		Month:       p.Month,
		PeriodKey:   p.Key(),
		PeriodLabel: p.Label(),
	}, nil
}

// Rename updates the budget's display name in the store and the budget row.
func (s *budgetService) Rename(userID uint, name string) error {
	b, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.SetBudgetName(name)
	if err := s.db.Model(b).Update("name", name).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SelectPeriod moves the current-period pointer.
func (s *budgetService) SelectPeriod(userID uint, year, month int) error {
	if month < 0 || month > 11 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 0 and 11")
	}
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.SelectPeriod(year, month)
	return nil
}

// Reset clears the budget and erases its persisted snapshot.
func (s *budgetService) Reset(userID uint) error {
	b, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.Reset()
	if err := s.db.Where("budget_id = ?", b.ID).Delete(&models.BudgetState{}).Error; err != nil {
		logger.Get().Errorw("erase budget snapshot", "budget_id", b.ID, "error", err)
	}
	return nil
}

// Summary aggregates the selected period's totals.
func (s *budgetService) Summary(userID uint) (*BudgetSummary, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return nil, err
	}
	return &BudgetSummary{
		TotalIncome:   st.TotalIncome(),
		TotalExpenses: st.TotalExpenses(),
		Balance:       st.Balance(),
		PersonaTotals: st.PersonaTotals(),
	}, nil
}

// Incomes lists the selected period's income entries.
func (s *budgetService) Incomes(userID uint) ([]budget.IncomeEntry, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return nil, err
	}
	return st.CurrentPeriodIncomes(), nil
}

// AddMovement adds an income entry or fixed expense from a movement form.
func (s *budgetService) AddMovement(userID uint, form budget.MovementForm) (string, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return "", err
	}
	return st.AddMovement(form), nil
}

// ToggleReceived flips one entry's received flag in the selected period.
func (s *budgetService) ToggleReceived(userID uint, entryID string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !incomeExists(st, entryID) {
		return apperrors.ErrEntryNotFound
	}
	st.ToggleReceived(entryID)
	return nil
}

// UpdateIncome edits an entry's structural fields.
func (s *budgetService) UpdateIncome(userID uint, entryID string, update budget.IncomeUpdate) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !incomeExists(st, entryID) {
		return apperrors.ErrEntryNotFound
	}
	st.UpdateIncome(entryID, update)
	return nil
}

// RemoveIncome removes an entry from the selected period and the template.
func (s *budgetService) RemoveIncome(userID uint, entryID string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !incomeExists(st, entryID) {
		return apperrors.ErrEntryNotFound
	}
	st.RemoveIncome(entryID)
	return nil
}

// Personas returns the roster and the persona theme map.
func (s *budgetService) Personas(userID uint) ([]string, map[string]int, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return nil, nil, err
	}
	return st.PersonaRoster(), st.PersonaThemes(), nil
}

// RenamePersona renames a persona across periods, template, roster, themes.
func (s *budgetService) RenamePersona(userID uint, oldName, newName string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.RenamePersona(oldName, newName)
	return nil
}

// SetPersonaThemeHue assigns an explicit hue to a persona.
func (s *budgetService) SetPersonaThemeHue(userID uint, persona string, hue int) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.SetPersonaThemeHue(persona, hue)
	return nil
}

// FixedExpenses lists the recurring expenses.
func (s *budgetService) FixedExpenses(userID uint) ([]budget.FixedExpense, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return nil, err
	}
	return st.FixedExpenses(), nil
}

// UpdateFixedExpense replaces a fixed expense's editable fields.
func (s *budgetService) UpdateFixedExpense(userID uint, item budget.FixedExpense) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !expenseExists(st, item.ID) {
		return apperrors.ErrEntryNotFound
	}
	st.UpdateFixedExpense(item)
	return nil
}

// ToggleFixedExpensePaid flips a fixed expense between paid and unpaid.
func (s *budgetService) ToggleFixedExpensePaid(userID uint, expenseID string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !expenseExists(st, expenseID) {
		return apperrors.ErrEntryNotFound
	}
	st.ToggleFixedExpensePaid(expenseID)
	return nil
}

// UpdateFixedExpensePaymentDate sets or clears a fixed expense's payment date.
func (s *budgetService) UpdateFixedExpensePaymentDate(userID uint, expenseID string, date *string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !expenseExists(st, expenseID) {
		return apperrors.ErrEntryNotFound
	}
	st.UpdateFixedExpensePaymentDate(expenseID, date)
	return nil
}

// RemoveFixedExpense deletes a fixed expense.
func (s *budgetService) RemoveFixedExpense(userID uint, expenseID string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	if !expenseExists(st, expenseID) {
		return apperrors.ErrEntryNotFound
	}
	st.RemoveFixedExpense(expenseID)
	return nil
}

// VariableExpenses lists the session's one-off expenses.
func (s *budgetService) VariableExpenses(userID uint) ([]budget.VariableExpense, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return nil, err
	}
	return st.VariableExpenses(), nil
}

// AddVariableExpense appends a one-off expense.
func (s *budgetService) AddVariableExpense(userID uint, form budget.VariableExpenseForm) (string, error) {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return "", err
	}
	return st.AddVariableExpense(form), nil
}

// RemoveVariableExpense deletes a one-off expense.
func (s *budgetService) RemoveVariableExpense(userID uint, expenseID string) error {
	_, st, err := s.storeFor(userID)
	if err != nil {
		return err
	}
	st.RemoveVariableExpense(expenseID)
	return nil
}

func incomeExists(st *budget.Store, entryID string) bool {
	for _, entry := range st.CurrentPeriodIncomes() {
		if entry.ID == entryID {
			return true
		}
	}
	return false
}

func expenseExists(st *budget.Store, expenseID string) bool {
	for _, expense := range st.FixedExpenses() {
		if expense.ID == expenseID {
			return true
		}
	}
	return false
}
