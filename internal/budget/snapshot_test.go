package budget

import (
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	t.Run("malformed_json_is_an_error", func(t *testing.T) {
		if _, err := Decode([]byte("{not json")); err == nil {
			t.Fatal("expected an error for malformed JSON")
		}
	})

	t.Run("wrong_typed_field_is_an_error", func(t *testing.T) {
		if _, err := Decode([]byte(`{"selectedMonth": "five"}`)); err == nil {
			t.Fatal("expected an error for a wrong-typed field")
		}
	})

	t.Run("missing_collections_default_to_empty", func(t *testing.T) {
		snap, err := Decode([]byte(`{"selectedMonth": 3, "selectedYear": 2025}`))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if snap.IncomesByMonth == nil || snap.Expenses == nil || snap.TemplateIncomes == nil || snap.PersonaThemes == nil || snap.Personas == nil {
			t.Error("expected all collections initialized")
		}
	})

	t.Run("out_of_range_month_degrades_to_current", func(t *testing.T) {
		snap, err := Decode([]byte(`{"selectedMonth": 14, "selectedYear": 2025}`))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		now := time.Now()
		if snap.SelectedMonth != int(now.Month())-1 || snap.SelectedYear != now.Year() {
			t.Errorf("expected current period, got %d/%d", snap.SelectedYear, snap.SelectedMonth)
		}
	})

	t.Run("roster_rebuilt_from_entries", func(t *testing.T) {
		raw := `{
			"selectedMonth": 0,
			"selectedYear": 2025,
			"personas": ["Jorge"],
			"incomesByMonth": {
				"2025-01": [{"id": "a", "persona": " Lucía ", "amount": 100}],
				"2024-12": [{"id": "b", "persona": "Ana", "amount": 50}]
			},
			"templateIncomes": [{"id": "a", "persona": "Lucía", "amount": 100, "received": true}]
		}`
		snap, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		// Explicit roster first, then periods in key order.
		want := []string{"Jorge", "Ana", "Lucía"}
		if len(snap.Personas) != len(want) {
			t.Fatalf("expected roster %v, got %v", want, snap.Personas)
		}
		for i, name := range want {
			if snap.Personas[i] != name {
				t.Errorf("roster[%d] = %q, want %q", i, snap.Personas[i], name)
			}
		}

		for _, persona := range snap.Personas {
			if _, ok := snap.PersonaThemes[persona]; !ok {
				t.Errorf("expected a theme hue for %q", persona)
			}
		}

		if snap.TemplateIncomes[0].Received {
			t.Error("expected template received flags reset")
		}
	})

	t.Run("entries_sanitized", func(t *testing.T) {
		raw := `{
			"selectedMonth": 0,
			"selectedYear": 2025,
			"incomesByMonth": {
				"2025-01": [
					{"id": "", "persona": "Jorge", "amount": -50, "percentage": 900},
					{"id": "x", "persona": "Jorge", "amount": 100}
				]
			},
			"expenses": [{"id": "", "concept": "Rent", "estimated": -1, "paid": -2}]
		}`
		snap, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		entries := snap.IncomesByMonth["2025-01"]
		if entries[0].ID == "" {
			t.Error("expected a generated id for the blank entry")
		}
		if entries[0].Amount != 0 {
			t.Errorf("expected negative amount clamped, got %v", entries[0].Amount)
		}
		// Stored percentages are never trusted; they come back recomputed.
		if entries[0].Percentage != 0 || entries[1].Percentage != 100 {
			t.Errorf("expected recomputed percentages 0/100, got %v/%v", entries[0].Percentage, entries[1].Percentage)
		}

		e := snap.Expenses[0]
		if e.ID == "" || e.Estimated != 0 || e.Paid != 0 {
			t.Errorf("expected sanitized expense, got %+v", e)
		}
	})

	t.Run("stored_hues_normalized", func(t *testing.T) {
		snap, err := Decode([]byte(`{"selectedMonth": 0, "selectedYear": 2025, "personaThemes": {"Jorge": 725}}`))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if snap.PersonaThemes["Jorge"] != 5 {
			t.Errorf("expected hue wrapped to 5, got %d", snap.PersonaThemes["Jorge"])
		}
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	addIncome(t, s, "Jorge", "1000", true)
	addIncome(t, s, "Lucía", "3000", false)
	rent := s.AddMovement(MovementForm{Type: MovementTypeExpense, Concept: "Rent", Amount: "500"})
	s.ToggleFixedExpensePaid(rent)
	s.SelectPeriod(2025, 1)
	addIncome(t, s, "Jorge", "250", false)
	s.SetBudgetName("Casa")

	data, err := Encode(s.Export())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	restored := NewStore(snap)

	if restored.BudgetName() != "Casa" {
		t.Errorf("expected budget name preserved, got %q", restored.BudgetName())
	}
	if got, want := restored.TotalIncome(), s.TotalIncome(); got != want {
		t.Errorf("total income changed: %v != %v", got, want)
	}
	if got, want := restored.TotalExpenses(), s.TotalExpenses(); got != want {
		t.Errorf("total expenses changed: %v != %v", got, want)
	}
	if got, want := restored.Balance(), s.Balance(); got != want {
		t.Errorf("balance changed: %v != %v", got, want)
	}

	// Every pre-existing period survives with its totals.
	before := s.Export()
	after := restored.Export()
	for key, entries := range before.IncomesByMonth {
		var wantTotal, gotTotal float64
		for _, e := range entries {
			wantTotal += e.Amount
		}
		for _, e := range after.IncomesByMonth[key] {
			gotTotal += e.Amount
		}
		if gotTotal != wantTotal {
			t.Errorf("period %s total changed: %v != %v", key, gotTotal, wantTotal)
		}
	}

	// Received flags survive the round trip for period entries.
	janBefore := before.IncomesByMonth["2025-01"]
	janAfter := after.IncomesByMonth["2025-01"]
	for i := range janBefore {
		if janBefore[i].Received != janAfter[i].Received {
			t.Errorf("received flag changed for %s", janBefore[i].ID)
		}
	}
}
