package budget

// Queries return copies; callers never see the store's own slices or maps.

// CurrentPeriod returns the selected period.
func (s *Store) CurrentPeriod() Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Period{Year: s.snap.SelectedYear, Month: s.snap.SelectedMonth}
}

// CurrentPeriodLabel returns a display label for the selected period.
func (s *Store) CurrentPeriodLabel() string {
	return s.CurrentPeriod().Label()
}

// BudgetName returns the budget's display name.
func (s *Store) BudgetName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.BudgetName
}

// CurrentPeriodIncomes returns the selected period's income entries.
func (s *Store) CurrentPeriodIncomes() []IncomeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.snap.IncomesByMonth[s.currentKeyLocked()])
}

// FixedExpenses returns the global fixed expense list.
func (s *Store) FixedExpenses() []FixedExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FixedExpense, len(s.snap.Expenses))
	copy(out, s.snap.Expenses)
	return out
}

// VariableExpenses returns the session's one-off expenses.
func (s *Store) VariableExpenses() []VariableExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VariableExpense, len(s.variable))
	copy(out, s.variable)
	return out
}

// PersonaRoster returns the known personas in first-appearance order.
func (s *Store) PersonaRoster() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.snap.Personas))
	copy(out, s.snap.Personas)
	return out
}

// PersonaThemes returns the persona-to-hue map.
func (s *Store) PersonaThemes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.snap.PersonaThemes))
	for name, hue := range s.snap.PersonaThemes {
		out[name] = hue
	}
	return out
}

// TotalIncome sums the selected period's income amounts.
func (s *Store) TotalIncome() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, entry := range s.snap.IncomesByMonth[s.currentKeyLocked()] {
		total += entry.Amount
	}
	return total
}

// TotalExpenses sums the paid amounts of the fixed expenses. Variable
// expenses are not folded in.
func (s *Store) TotalExpenses() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, expense := range s.snap.Expenses {
		total += expense.Paid
	}
	return total
}

// Balance is total income minus total expenses for the selected period.
func (s *Store) Balance() float64 {
	return s.TotalIncome() - s.TotalExpenses()
}

// PersonaTotals groups the selected period's entries by persona, in
// first-appearance order.
func (s *Store) PersonaTotals() []PersonaTotal {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := []PersonaTotal{}
	index := map[string]int{}
	for _, entry := range s.snap.IncomesByMonth[s.currentKeyLocked()] {
		i, ok := index[entry.Persona]
		if !ok {
			i = len(totals)
			index[entry.Persona] = i
			totals = append(totals, PersonaTotal{Persona: entry.Persona})
		}
		totals[i].Total += entry.Amount
	}
	return totals
}

// Export returns a deep copy of the persisted snapshot.
func (s *Store) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	snap.Personas = make([]string, len(s.snap.Personas))
	copy(snap.Personas, s.snap.Personas)
	snap.Expenses = make([]FixedExpense, len(s.snap.Expenses))
	copy(snap.Expenses, s.snap.Expenses)
	snap.TemplateIncomes = cloneEntries(s.snap.TemplateIncomes)
	snap.IncomesByMonth = make(map[string][]IncomeEntry, len(s.snap.IncomesByMonth))
	for key, entries := range s.snap.IncomesByMonth {
		snap.IncomesByMonth[key] = cloneEntries(entries)
	}
	snap.PersonaThemes = make(map[string]int, len(s.snap.PersonaThemes))
	for name, hue := range s.snap.PersonaThemes {
		snap.PersonaThemes[name] = hue
	}
	return snap
}
