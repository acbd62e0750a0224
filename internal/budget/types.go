// Package budget implements the in-memory budget state: per-period income
// entries, the recurring income template, fixed and variable expenses,
// persona roster and color themes, and every mutation and derived query
// over them. The Store is the single writer; HTTP handlers and services
// only call its operations and read copies of its state.
package budget

import (
	"math"
	"strconv"
	"strings"
)

// MovementTypeIncome and MovementTypeExpense discriminate MovementForm payloads.
const (
	MovementTypeIncome  = "income"
	MovementTypeExpense = "expense"
)

// DefaultPersona is assigned to income entries when the form carries no
// persona and the roster is empty.
const DefaultPersona = "General"

// IncomeEntry is one income line in a period. Percentage is derived and
// recomputed whenever the period's entry set changes; it is never trusted
// from a stored snapshot.
type IncomeEntry struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Source     string  `json:"source"`
	Persona    string  `json:"persona"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Received   bool    `json:"received"`
}

// FixedExpense is a recurring monthly expense. The list is global, not
// partitioned by period.
type FixedExpense struct {
	ID          string  `json:"id"`
	Concept     string  `json:"concept"`
	Category    string  `json:"category"`
	Estimated   float64 `json:"estimated"`
	Paid        float64 `json:"paid"`
	IsPaid      bool    `json:"isPaid"`
	Note        string  `json:"note,omitempty"`
	PaymentDate *string `json:"paymentDate,omitempty"`
}

// VariableExpense is a one-off expense. Variable expenses live only for the
// session: they are not part of the persisted snapshot.
type VariableExpense struct {
	ID       string  `json:"id"`
	Concept  string  `json:"concept"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note,omitempty"`
}

// MovementForm is the discriminated payload accepted by AddMovement.
// Amount is free-form text; unparsable values degrade to 0.
type MovementForm struct {
	Type     string
	Date     string
	Concept  string
	Persona  string
	Amount   string
	Category string
	Received bool
	Note     string
}

// VariableExpenseForm is the payload accepted by AddVariableExpense.
type VariableExpenseForm struct {
	Concept  string
	Category string
	Date     string
	Amount   string
	Note     string
}

// IncomeUpdate holds the structural fields of an income entry that can be
// edited. Nil fields are left unchanged.
type IncomeUpdate struct {
	Date    *string
	Source  *string
	Persona *string
	Amount  *float64
}

// PersonaTotal is the summed income of one persona for the current period.
type PersonaTotal struct {
	Persona string  `json:"persona"`
	Total   float64 `json:"total"`
}

// ParseAmount parses free-form numeric text ("1000", "$1,000.50", "1.000,50 €")
// into a non-negative amount. Anything unparsable degrades to 0.
func ParseAmount(raw string) float64 {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both present: the later one is the decimal separator.
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case lastDot >= 0 && strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

// recomputePercentages rewrites every entry's share-of-total percentage,
// rounded to one decimal. A zero total zeroes every percentage.
func recomputePercentages(entries []IncomeEntry) {
	var total float64
	for i := range entries {
		total += entries[i].Amount
	}
	for i := range entries {
		if total > 0 {
			entries[i].Percentage = math.Round(entries[i].Amount/total*1000) / 10
		} else {
			entries[i].Percentage = 0
		}
	}
}

func cloneEntries(entries []IncomeEntry) []IncomeEntry {
	out := make([]IncomeEntry, len(entries))
	copy(out, entries)
	return out
}
