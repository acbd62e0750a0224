package services

import (
	"testing"

	"github.com/jorgenomente/hucha/internal/budget"
	"github.com/jorgenomente/hucha/internal/models"
	"github.com/jorgenomente/hucha/internal/testutil"
	"gorm.io/gorm"
)

func seedBudgetUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestBudget(t, db, user.ID)
	return user
}

func incomeForm(persona, amount string) budget.MovementForm {
	return budget.MovementForm{
		Type:    budget.MovementTypeIncome,
		Date:    "2025-01-15",
		Concept: "Salary",
		Persona: persona,
		Amount:  amount,
	}
}

func TestBudgetOverview(t *testing.T) {
	t.Run("returns_budget_and_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := seedBudgetUser(t, db)

		overview, err := svc.Overview(user.ID)
		testutil.AssertNoError(t, err)
		if overview.BudgetID == 0 {
			t.Error("expected a budget ID")
		}
		if overview.Name == "" {
			t.Error("expected the budget row's name as default")
		}
		if overview.Month < 0 || overview.Month > 11 {
			t.Errorf("expected a valid month, got %d", overview.Month)
		}
	})

	t.Run("no_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Overview(user.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestBudgetRename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := seedBudgetUser(t, db)

	testutil.AssertNoError(t, svc.Rename(user.ID, "Casa"))

	overview, err := svc.Overview(user.ID)
	testutil.AssertNoError(t, err)
	if overview.Name != "Casa" {
		t.Errorf("expected Casa, got %q", overview.Name)
	}

	var b models.Budget
	if err := db.First(&b, overview.BudgetID).Error; err != nil {
		t.Fatalf("failed to reload budget: %v", err)
	}
	if b.Name != "Casa" {
		t.Errorf("expected budget row renamed, got %q", b.Name)
	}
}

func TestBudgetMovements(t *testing.T) {
	t.Run("add_and_list_incomes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := seedBudgetUser(t, db)

		id, err := svc.AddMovement(user.ID, incomeForm("Jorge", "1000"))
		testutil.AssertNoError(t, err)

		incomes, err := svc.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if len(incomes) != 1 || incomes[0].ID != id {
			t.Fatalf("expected the added income, got %+v", incomes)
		}
	})

	t.Run("toggle_received_unknown_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := seedBudgetUser(t, db)

		err := svc.ToggleReceived(user.ID, "missing")
		testutil.AssertAppError(t, err, "ENTRY_NOT_FOUND")
	})

	t.Run("update_and_remove_income", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := seedBudgetUser(t, db)

		id, err := svc.AddMovement(user.ID, incomeForm("Jorge", "1000"))
		testutil.AssertNoError(t, err)

		amount := 1500.0
		testutil.AssertNoError(t, svc.UpdateIncome(user.ID, id, budget.IncomeUpdate{Amount: &amount}))

		incomes, err := svc.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if incomes[0].Amount != 1500 {
			t.Errorf("expected amount 1500, got %v", incomes[0].Amount)
		}

		testutil.AssertNoError(t, svc.RemoveIncome(user.ID, id))
		incomes, err = svc.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if len(incomes) != 0 {
			t.Errorf("expected no incomes, got %+v", incomes)
		}

		err = svc.RemoveIncome(user.ID, id)
		testutil.AssertAppError(t, err, "ENTRY_NOT_FOUND")
	})
}

func TestBudgetSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := seedBudgetUser(t, db)

	_, err := svc.AddMovement(user.ID, incomeForm("Jorge", "1000"))
	testutil.AssertNoError(t, err)
	_, err = svc.AddMovement(user.ID, incomeForm("Lucía", "3000"))
	testutil.AssertNoError(t, err)

	rentID, err := svc.AddMovement(user.ID, budget.MovementForm{
		Type: budget.MovementTypeExpense, Concept: "Rent", Amount: "500",
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, svc.ToggleFixedExpensePaid(user.ID, rentID))

	summary, err := svc.Summary(user.ID)
	testutil.AssertNoError(t, err)
	if summary.TotalIncome != 4000 {
		t.Errorf("expected income 4000, got %v", summary.TotalIncome)
	}
	if summary.TotalExpenses != 500 {
		t.Errorf("expected expenses 500, got %v", summary.TotalExpenses)
	}
	if summary.Balance != 3500 {
		t.Errorf("expected balance 3500, got %v", summary.Balance)
	}
	if len(summary.PersonaTotals) != 2 || summary.PersonaTotals[0].Persona != "Jorge" {
		t.Errorf("expected persona totals in insertion order, got %+v", summary.PersonaTotals)
	}
}

func TestBudgetPersistence(t *testing.T) {
	t.Run("mutations_survive_a_new_service", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := seedBudgetUser(t, db)

		svc := NewBudgetService(db)
		_, err := svc.AddMovement(user.ID, incomeForm("Jorge", "1000"))
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.Rename(user.ID, "Casa"))

		// A fresh service hydrates from the snapshot row, as after a restart.
		reloaded := NewBudgetService(db)
		incomes, err := reloaded.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if len(incomes) != 1 || incomes[0].Amount != 1000 {
			t.Fatalf("expected the persisted income, got %+v", incomes)
		}

		overview, err := reloaded.Overview(user.ID)
		testutil.AssertNoError(t, err)
		if overview.Name != "Casa" {
			t.Errorf("expected persisted name Casa, got %q", overview.Name)
		}
	})

	t.Run("variable_expenses_do_not_survive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := seedBudgetUser(t, db)

		svc := NewBudgetService(db)
		_, err := svc.AddVariableExpense(user.ID, budget.VariableExpenseForm{Concept: "Groceries", Amount: "80"})
		testutil.AssertNoError(t, err)

		reloaded := NewBudgetService(db)
		expenses, err := reloaded.VariableExpenses(user.ID)
		testutil.AssertNoError(t, err)
		if len(expenses) != 0 {
			t.Errorf("expected session-only expenses gone, got %+v", expenses)
		}
	})

	t.Run("corrupt_snapshot_degrades_to_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := seedBudgetUser(t, db)

		var member models.BudgetMember
		if err := db.Where("user_id = ?", user.ID).First(&member).Error; err != nil {
			t.Fatalf("failed to load membership: %v", err)
		}
		state := models.BudgetState{BudgetID: member.BudgetID, Data: []byte("{broken")}
		if err := db.Create(&state).Error; err != nil {
			t.Fatalf("failed to plant corrupt snapshot: %v", err)
		}

		svc := NewBudgetService(db)
		incomes, err := svc.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if len(incomes) != 0 {
			t.Errorf("expected an empty store, got %+v", incomes)
		}
	})

	t.Run("reset_erases_snapshot_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := seedBudgetUser(t, db)

		svc := NewBudgetService(db)
		_, err := svc.AddMovement(user.ID, incomeForm("Jorge", "1000"))
		testutil.AssertNoError(t, err)

		overview, err := svc.Overview(user.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.Reset(user.ID))

		var count int64
		db.Model(&models.BudgetState{}).Where("budget_id = ?", overview.BudgetID).Count(&count)
		if count != 0 {
			t.Errorf("expected snapshot row deleted, found %d", count)
		}

		incomes, err := svc.Incomes(user.ID)
		testutil.AssertNoError(t, err)
		if len(incomes) != 0 {
			t.Errorf("expected empty store after reset, got %+v", incomes)
		}
	})
}

func TestSharedBudgetResolution(t *testing.T) {
	// Accepting an invite makes the shared budget the member's active one:
	// the most recent membership wins.
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)

	owner := seedBudgetUser(t, db)
	guest := seedBudgetUser(t, db)

	ownerOverview, err := svc.Overview(owner.ID)
	testutil.AssertNoError(t, err)

	member := models.BudgetMember{BudgetID: ownerOverview.BudgetID, UserID: guest.ID, Role: models.MemberRoleMember}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to create shared membership: %v", err)
	}

	_, err = svc.AddMovement(owner.ID, incomeForm("Jorge", "1000"))
	testutil.AssertNoError(t, err)

	guestOverview, err := svc.Overview(guest.ID)
	testutil.AssertNoError(t, err)
	if guestOverview.BudgetID != ownerOverview.BudgetID {
		t.Fatalf("expected guest to resolve to the shared budget, got %d", guestOverview.BudgetID)
	}

	incomes, err := svc.Incomes(guest.ID)
	testutil.AssertNoError(t, err)
	if len(incomes) != 1 {
		t.Errorf("expected guest to see the shared income, got %+v", incomes)
	}
}

func TestFixedExpenseOperations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := seedBudgetUser(t, db)

	id, err := svc.AddMovement(user.ID, budget.MovementForm{
		Type: budget.MovementTypeExpense, Concept: "Rent", Category: "Housing", Amount: "500",
	})
	testutil.AssertNoError(t, err)

	date := "2025-01-20"
	testutil.AssertNoError(t, svc.UpdateFixedExpensePaymentDate(user.ID, id, &date))

	expenses, err := svc.FixedExpenses(user.ID)
	testutil.AssertNoError(t, err)
	if expenses[0].PaymentDate == nil || *expenses[0].PaymentDate != date {
		t.Errorf("expected payment date set, got %v", expenses[0].PaymentDate)
	}

	testutil.AssertNoError(t, svc.RemoveFixedExpense(user.ID, id))
	err = svc.RemoveFixedExpense(user.ID, id)
	testutil.AssertAppError(t, err, "ENTRY_NOT_FOUND")
}
