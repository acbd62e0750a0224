package budget

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jorgenomente/hucha/internal/uuid"
)

// Snapshot is the serializable aggregate of all persisted budget state.
// Variable expenses are deliberately absent: they live only for the session.
type Snapshot struct {
	SelectedMonth   int                      `json:"selectedMonth"`
	SelectedYear    int                      `json:"selectedYear"`
	BudgetName      string                   `json:"budgetName"`
	Personas        []string                 `json:"personas"`
	IncomesByMonth  map[string][]IncomeEntry `json:"incomesByMonth"`
	Expenses        []FixedExpense           `json:"expenses"`
	TemplateIncomes []IncomeEntry            `json:"templateIncomes"`
	PersonaThemes   map[string]int           `json:"personaThemes"`
}

// NewSnapshot returns an empty snapshot pointing at the calendar month of now.
func NewSnapshot(now time.Time) Snapshot {
	p := currentPeriod(now)
	return Snapshot{
		SelectedMonth:   p.Month,
		SelectedYear:    p.Year,
		Personas:        []string{},
		IncomesByMonth:  map[string][]IncomeEntry{},
		Expenses:        []FixedExpense{},
		TemplateIncomes: []IncomeEntry{},
		PersonaThemes:   map[string]int{},
	}
}

// Encode serializes the snapshot to JSON.
func Encode(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted snapshot. Malformed JSON or wrong-typed fields
// yield an explicit error so the caller can fall back to an empty snapshot;
// a structurally valid snapshot is then normalized: roster rebuilt from the
// entries, percentages recomputed from raw amounts, and a theme hue assigned
// to every persona lacking one.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.normalize(time.Now())
	return snap, nil
}

// normalize coerces a decoded snapshot into a consistent state. It never
// fails: out-of-range and missing values degrade to defaults.
func (snap *Snapshot) normalize(now time.Time) {
	if snap.SelectedMonth < 0 || snap.SelectedMonth > 11 {
		p := currentPeriod(now)
		snap.SelectedMonth = p.Month
		snap.SelectedYear = p.Year
	}
	if snap.SelectedYear <= 0 {
		snap.SelectedYear = now.Year()
	}
	if snap.IncomesByMonth == nil {
		snap.IncomesByMonth = map[string][]IncomeEntry{}
	}
	if snap.Expenses == nil {
		snap.Expenses = []FixedExpense{}
	}
	if snap.TemplateIncomes == nil {
		snap.TemplateIncomes = []IncomeEntry{}
	}
	if snap.PersonaThemes == nil {
		snap.PersonaThemes = map[string]int{}
	}

	for key, entries := range snap.IncomesByMonth {
		sanitizeEntries(entries)
		recomputePercentages(entries)
		snap.IncomesByMonth[key] = entries
	}
	sanitizeEntries(snap.TemplateIncomes)
	for i := range snap.TemplateIncomes {
		snap.TemplateIncomes[i].Received = false
	}
	for i := range snap.Expenses {
		if snap.Expenses[i].ID == "" {
			snap.Expenses[i].ID = uuid.New()
		}
		if snap.Expenses[i].Estimated < 0 {
			snap.Expenses[i].Estimated = 0
		}
		if snap.Expenses[i].Paid < 0 {
			snap.Expenses[i].Paid = 0
		}
	}

	snap.Personas = snap.rebuildRoster()
	for name, hue := range snap.PersonaThemes {
		snap.PersonaThemes[name] = normalizeHue(hue)
	}
	for _, persona := range snap.Personas {
		if _, ok := snap.PersonaThemes[persona]; !ok {
			snap.PersonaThemes[persona] = nextHue(snap.PersonaThemes)
		}
	}
}

// rebuildRoster returns the union of the explicit roster and every persona
// referenced by any period's entries or the template, trimmed, deduplicated
// case-sensitively, first appearance first. Periods are visited in key order
// so the result is deterministic.
func (snap *Snapshot) rebuildRoster() []string {
	roster := make([]string, 0, len(snap.Personas))
	seen := make(map[string]bool, len(snap.Personas))
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		roster = append(roster, name)
	}

	for _, name := range snap.Personas {
		add(name)
	}
	keys := make([]string, 0, len(snap.IncomesByMonth))
	for key := range snap.IncomesByMonth {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, entry := range snap.IncomesByMonth[key] {
			add(entry.Persona)
		}
	}
	for _, entry := range snap.TemplateIncomes {
		add(entry.Persona)
	}
	return roster
}

func sanitizeEntries(entries []IncomeEntry) {
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New()
		}
		if entries[i].Amount < 0 {
			entries[i].Amount = 0
		}
		entries[i].Persona = strings.TrimSpace(entries[i].Persona)
	}
}
