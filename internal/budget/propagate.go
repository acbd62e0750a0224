package budget

// applyStructuralLocked runs a structural income mutation through the
// template write-through cycle:
//
//  1. Take the current period's entries as the basis, or a received-reset
//     clone of the template if the period was never materialized.
//  2. Apply the mutation to the basis.
//  3. Recompute percentages and store the basis as the current period.
//  4. Re-derive the template from the basis (deduplicated, received reset).
//  5. Align every other materialized period to the new template: template
//     entries adopt the template's fields but keep that period's received
//     flag; entries unknown to the template survive as extras, appended
//     after the aligned ones.
//
// This is what lets "my salary changed" apply everywhere at once without
// reverting a past month's received checkmarks or dropping its one-off
// entries. Callers hold the store lock.
func (s *Store) applyStructuralLocked(mutate func([]IncomeEntry) []IncomeEntry) {
	key := s.currentKeyLocked()

	basis, materialized := s.snap.IncomesByMonth[key]
	if materialized {
		basis = cloneEntries(basis)
	} else {
		basis = cloneEntries(s.snap.TemplateIncomes)
		for i := range basis {
			basis[i].Received = false
		}
	}

	basis = mutate(basis)
	recomputePercentages(basis)
	s.snap.IncomesByMonth[key] = basis
	s.snap.TemplateIncomes = deriveTemplate(basis)

	for other, entries := range s.snap.IncomesByMonth {
		if other == key {
			continue
		}
		s.snap.IncomesByMonth[other] = alignToTemplate(entries, s.snap.TemplateIncomes)
	}
}

// deriveTemplate snapshots the recurring entries of a period list: one entry
// per id, received always false.
func deriveTemplate(entries []IncomeEntry) []IncomeEntry {
	template := make([]IncomeEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		entry.Received = false
		template = append(template, entry)
	}
	return template
}

// alignToTemplate rewrites one period's entries against the template,
// carrying over the period's own received flags and preserving its extras.
func alignToTemplate(entries, template []IncomeEntry) []IncomeEntry {
	received := make(map[string]bool, len(entries))
	for _, entry := range entries {
		received[entry.ID] = entry.Received
	}

	merged := make([]IncomeEntry, 0, len(entries))
	inTemplate := make(map[string]bool, len(template))
	for _, entry := range template {
		inTemplate[entry.ID] = true
		entry.Received = received[entry.ID]
		merged = append(merged, entry)
	}
	for _, entry := range entries {
		if !inTemplate[entry.ID] {
			merged = append(merged, entry)
		}
	}

	recomputePercentages(merged)
	return merged
}
