package budget

import (
	"strings"
	"sync"
	"time"

	"github.com/jorgenomente/hucha/internal/uuid"
)

// Store owns one budget's state. All mutations are atomic behind a mutex and
// every applied change is announced to subscribers, which is how persistence
// and any UI layer observe the store without being wired into it.
type Store struct {
	mu       sync.Mutex
	snap     Snapshot
	variable []VariableExpense
	subs     map[int]func()
	nextSub  int
}

// NewStore builds a store from a hydrated snapshot and materializes the
// selected period from the template if it has no entries yet.
func NewStore(snap Snapshot) *Store {
	s := &Store{snap: snap, subs: map[int]func(){}}
	s.mu.Lock()
	s.materializeLocked()
	s.mu.Unlock()
	return s
}

// Subscribe registers fn to run after every applied mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notify runs subscribers outside the lock so they can read the store.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SelectPeriod moves the current-period pointer and materializes the period
// from the template when it has no entries yet. Out-of-range months are
// ignored. Selecting the already-selected period is a no-op.
func (s *Store) SelectPeriod(year, month int) {
	if !(Period{Year: year, Month: month}).Valid() {
		return
	}
	s.mu.Lock()
	changed := s.snap.SelectedYear != year || s.snap.SelectedMonth != month
	s.snap.SelectedYear = year
	s.snap.SelectedMonth = month
	if s.materializeLocked() {
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// materializeLocked seeds the current period from the template, with every
// received flag reset, if the period has never been materialized.
func (s *Store) materializeLocked() bool {
	key := s.currentKeyLocked()
	if _, ok := s.snap.IncomesByMonth[key]; ok {
		return false
	}
	seeded := cloneEntries(s.snap.TemplateIncomes)
	for i := range seeded {
		seeded[i].Received = false
	}
	recomputePercentages(seeded)
	s.snap.IncomesByMonth[key] = seeded
	return true
}

func (s *Store) currentKeyLocked() string {
	return Period{Year: s.snap.SelectedYear, Month: s.snap.SelectedMonth}.Key()
}

// AddMovement appends either an income entry (template-scoped, propagated to
// every materialized period) or a fixed expense, depending on the form's
// type. It returns the new item's id.
func (s *Store) AddMovement(form MovementForm) string {
	if form.Type == MovementTypeExpense {
		return s.addFixedExpense(form)
	}
	return s.addIncome(form)
}

func (s *Store) addIncome(form MovementForm) string {
	id := uuid.New()
	s.mu.Lock()
	persona := strings.TrimSpace(form.Persona)
	if persona == "" {
		if len(s.snap.Personas) > 0 {
			persona = s.snap.Personas[0]
		} else {
			persona = DefaultPersona
		}
	}
	s.registerPersonaLocked(persona)
	entry := IncomeEntry{
		ID:       id,
		Date:     form.Date,
		Source:   form.Concept,
		Persona:  persona,
		Amount:   ParseAmount(form.Amount),
		Received: form.Received,
	}
	s.applyStructuralLocked(func(entries []IncomeEntry) []IncomeEntry {
		return append(entries, entry)
	})
	s.mu.Unlock()
	s.notify()
	return id
}

func (s *Store) addFixedExpense(form MovementForm) string {
	id := uuid.New()
	amount := ParseAmount(form.Amount)
	expense := FixedExpense{
		ID:        id,
		Concept:   form.Concept,
		Category:  form.Category,
		Estimated: amount,
		Note:      form.Note,
	}
	if form.Received {
		expense.Paid = amount
		expense.IsPaid = true
		if form.Date != "" {
			date := form.Date
			expense.PaymentDate = &date
		}
	}
	s.mu.Lock()
	s.snap.Expenses = append(s.snap.Expenses, expense)
	s.mu.Unlock()
	s.notify()
	return id
}

// ToggleReceived flips the received flag of one entry in the current period
// only. The template and every other period are left untouched.
func (s *Store) ToggleReceived(entryID string) {
	s.mu.Lock()
	key := s.currentKeyLocked()
	entries := s.snap.IncomesByMonth[key]
	changed := false
	for i := range entries {
		if entries[i].ID == entryID {
			entries[i].Received = !entries[i].Received
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// UpdateIncome edits an entry's structural fields and propagates the change
// through the template to every materialized period.
func (s *Store) UpdateIncome(entryID string, update IncomeUpdate) {
	s.mu.Lock()
	if update.Persona != nil {
		if persona := strings.TrimSpace(*update.Persona); persona != "" {
			s.registerPersonaLocked(persona)
		}
	}
	s.applyStructuralLocked(func(entries []IncomeEntry) []IncomeEntry {
		for i := range entries {
			if entries[i].ID != entryID {
				continue
			}
			if update.Date != nil {
				entries[i].Date = *update.Date
			}
			if update.Source != nil {
				entries[i].Source = *update.Source
			}
			if update.Persona != nil {
				if persona := strings.TrimSpace(*update.Persona); persona != "" {
					entries[i].Persona = persona
				}
			}
			if update.Amount != nil && *update.Amount >= 0 {
				entries[i].Amount = *update.Amount
			}
			break
		}
		return entries
	})
	s.mu.Unlock()
	s.notify()
}

// RemoveIncome removes an entry from the current period and the template.
// Other periods keep a copy as an ad-hoc extra, preserving their history.
func (s *Store) RemoveIncome(entryID string) {
	s.mu.Lock()
	s.applyStructuralLocked(func(entries []IncomeEntry) []IncomeEntry {
		out := entries[:0]
		for _, e := range entries {
			if e.ID != entryID {
				out = append(out, e)
			}
		}
		return out
	})
	s.mu.Unlock()
	s.notify()
}

// RenamePersona renames a persona everywhere: template, every period
// (including ad-hoc extras), the roster, and the theme map. The old name's
// hue follows the persona to its new name.
func (s *Store) RenamePersona(oldName, newName string) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" || oldName == newName {
		return
	}

	s.mu.Lock()
	rename := func(entries []IncomeEntry) []IncomeEntry {
		for i := range entries {
			if entries[i].Persona == oldName {
				entries[i].Persona = newName
			}
		}
		return entries
	}
	s.applyStructuralLocked(rename)
	// Alignment only rewrites template-backed entries; sweep extras too.
	for key, entries := range s.snap.IncomesByMonth {
		s.snap.IncomesByMonth[key] = rename(entries)
	}

	roster := make([]string, 0, len(s.snap.Personas))
	seen := make(map[string]bool, len(s.snap.Personas))
	for _, name := range s.snap.Personas {
		if name == oldName {
			name = newName
		}
		if !seen[name] {
			seen[name] = true
			roster = append(roster, name)
		}
	}
	s.snap.Personas = roster

	if hue, ok := s.snap.PersonaThemes[oldName]; ok {
		delete(s.snap.PersonaThemes, oldName)
		if _, taken := s.snap.PersonaThemes[newName]; !taken {
			s.snap.PersonaThemes[newName] = hue
		}
	} else if _, taken := s.snap.PersonaThemes[newName]; !taken {
		s.snap.PersonaThemes[newName] = nextHue(s.snap.PersonaThemes)
	}
	s.mu.Unlock()
	s.notify()
}

// registerPersonaLocked adds a persona to the roster and assigns a theme hue
// if it has not been seen before.
func (s *Store) registerPersonaLocked(persona string) {
	for _, name := range s.snap.Personas {
		if name == persona {
			if _, ok := s.snap.PersonaThemes[persona]; !ok {
				s.snap.PersonaThemes[persona] = nextHue(s.snap.PersonaThemes)
			}
			return
		}
	}
	s.snap.Personas = append(s.snap.Personas, persona)
	if _, ok := s.snap.PersonaThemes[persona]; !ok {
		s.snap.PersonaThemes[persona] = nextHue(s.snap.PersonaThemes)
	}
}

// SetPersonaThemeHue assigns an explicit hue to a persona, registering the
// persona if needed. The hue is wrapped into [0, 359].
func (s *Store) SetPersonaThemeHue(persona string, hue int) {
	persona = strings.TrimSpace(persona)
	if persona == "" {
		return
	}
	s.mu.Lock()
	s.registerPersonaLocked(persona)
	s.snap.PersonaThemes[persona] = normalizeHue(hue)
	s.mu.Unlock()
	s.notify()
}

// UpdateFixedExpense replaces the editable fields of a fixed expense. The
// paid flag is derived from the amounts when they imply payment, but an
// explicitly set flag is honored as well.
func (s *Store) UpdateFixedExpense(item FixedExpense) {
	s.mu.Lock()
	changed := false
	for i := range s.snap.Expenses {
		if s.snap.Expenses[i].ID != item.ID {
			continue
		}
		if item.Estimated < 0 {
			item.Estimated = 0
		}
		if item.Paid < 0 {
			item.Paid = 0
		}
		item.IsPaid = item.IsPaid || (item.Estimated > 0 && item.Paid >= item.Estimated)
		s.snap.Expenses[i] = item
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ToggleFixedExpensePaid flips one expense between fully paid and unpaid.
// The flag and the paid amount always move together.
func (s *Store) ToggleFixedExpensePaid(expenseID string) {
	s.mu.Lock()
	changed := false
	for i := range s.snap.Expenses {
		if s.snap.Expenses[i].ID != expenseID {
			continue
		}
		if s.snap.Expenses[i].IsPaid {
			s.snap.Expenses[i].IsPaid = false
			s.snap.Expenses[i].Paid = 0
		} else {
			s.snap.Expenses[i].IsPaid = true
			s.snap.Expenses[i].Paid = s.snap.Expenses[i].Estimated
		}
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// UpdateFixedExpensePaymentDate sets or clears an expense's payment date.
func (s *Store) UpdateFixedExpensePaymentDate(expenseID string, date *string) {
	s.mu.Lock()
	changed := false
	for i := range s.snap.Expenses {
		if s.snap.Expenses[i].ID == expenseID {
			s.snap.Expenses[i].PaymentDate = date
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// RemoveFixedExpense deletes a fixed expense from the global list.
func (s *Store) RemoveFixedExpense(expenseID string) {
	s.mu.Lock()
	out := s.snap.Expenses[:0]
	changed := false
	for _, e := range s.snap.Expenses {
		if e.ID == expenseID {
			changed = true
			continue
		}
		out = append(out, e)
	}
	s.snap.Expenses = out
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// AddVariableExpense appends a one-off expense and returns its id.
func (s *Store) AddVariableExpense(form VariableExpenseForm) string {
	id := uuid.New()
	s.mu.Lock()
	s.variable = append(s.variable, VariableExpense{
		ID:       id,
		Concept:  form.Concept,
		Category: form.Category,
		Date:     form.Date,
		Amount:   ParseAmount(form.Amount),
		Note:     form.Note,
	})
	s.mu.Unlock()
	s.notify()
	return id
}

// RemoveVariableExpense deletes a one-off expense.
func (s *Store) RemoveVariableExpense(expenseID string) {
	s.mu.Lock()
	out := s.variable[:0]
	changed := false
	for _, e := range s.variable {
		if e.ID == expenseID {
			changed = true
			continue
		}
		out = append(out, e)
	}
	s.variable = out
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetBudgetName updates the budget's display name.
func (s *Store) SetBudgetName(name string) {
	s.mu.Lock()
	s.snap.BudgetName = name
	s.mu.Unlock()
	s.notify()
}

// Reset clears every collection back to an empty snapshot pointing at the
// current calendar month. Irreversible; callers confirm with the user first.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = NewSnapshot(time.Now())
	s.variable = nil
	s.mu.Unlock()
	s.notify()
}
