package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jorgenomente/hucha/internal/budget"
	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/services"
)

// ExpenseHandler handles fixed and variable expense requests.
type ExpenseHandler struct {
	budgetService services.BudgetServicer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(budgetService services.BudgetServicer) *ExpenseHandler {
	return &ExpenseHandler{budgetService: budgetService}
}

// FixedExpenseUpdateRequest edits a fixed expense. The entry is replaced
// wholesale; negative amounts are clamped to 0.
type FixedExpenseUpdateRequest struct {
	Concept     string  `json:"concept" binding:"required,notblank"`
	Category    string  `json:"category"`
	Estimated   float64 `json:"estimated"`
	Paid        float64 `json:"paid"`
	IsPaid      bool    `json:"isPaid"`
	Note        string  `json:"note"`
	PaymentDate *string `json:"paymentDate"`
}

// PaymentDateRequest sets or clears a fixed expense's payment date.
type PaymentDateRequest struct {
	Date *string `json:"date"`
}

// VariableExpenseRequest adds a one-off expense. Amount is free-form text.
type VariableExpenseRequest struct {
	Concept  string `json:"concept" binding:"required,notblank"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Amount   string `json:"amount" binding:"required"`
	Note     string `json:"note"`
}

// ListFixed returns the fixed expense list
// @Summary     List fixed expenses
// @Description List the recurring fixed expenses; the list is shared by every period
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Fixed expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/expenses [get]
func (h *ExpenseHandler) ListFixed(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.budgetService.FixedExpenses(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// UpdateFixed edits a fixed expense
// @Summary     Update fixed expense
// @Description Replace a fixed expense's fields; covering the estimate marks it paid
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Param       request body FixedExpenseUpdateRequest true "Expense data"
// @Success     200 {object} MessageResponse "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /budget/expenses/{id} [put]
func (h *ExpenseHandler) UpdateFixed(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FixedExpenseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item := budget.FixedExpense{
		ID:          c.Param("id"),
		Concept:     req.Concept,
		Category:    req.Category,
		Estimated:   req.Estimated,
		Paid:        req.Paid,
		IsPaid:      req.IsPaid,
		Note:        req.Note,
		PaymentDate: req.PaymentDate,
	}
	if err := h.budgetService.UpdateFixedExpense(userID, item); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense updated successfully"})
}

// TogglePaid flips a fixed expense between fully paid and unpaid
// @Summary     Toggle expense paid
// @Description Mark a fixed expense fully paid (paid = estimated) or unpaid (paid = 0)
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense toggled"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /budget/expenses/{id}/paid [post]
func (h *ExpenseHandler) TogglePaid(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.ToggleFixedExpensePaid(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense updated successfully"})
}

// UpdatePaymentDate sets or clears a fixed expense's payment date
// @Summary     Update expense payment date
// @Description Set or clear the date a fixed expense was paid
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Param       request body PaymentDateRequest true "Payment date (null clears it)"
// @Success     200 {object} MessageResponse "Payment date updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /budget/expenses/{id}/payment-date [put]
func (h *ExpenseHandler) UpdatePaymentDate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.UpdateFixedExpensePaymentDate(userID, c.Param("id"), req.Date); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense updated successfully"})
}

// RemoveFixed deletes a fixed expense
// @Summary     Remove fixed expense
// @Description Delete a fixed expense from the shared list
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /budget/expenses/{id} [delete]
func (h *ExpenseHandler) RemoveFixed(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.RemoveFixedExpense(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense removed successfully"})
}

// ListVariable returns the session's variable expenses
// @Summary     List variable expenses
// @Description List the one-off variable expenses recorded since the server started; they are not persisted
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Variable expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/variable-expenses [get]
func (h *ExpenseHandler) ListVariable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.budgetService.VariableExpenses(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// AddVariable records a one-off expense
// @Summary     Add variable expense
// @Description Record a one-off expense; it lives only for the session
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body VariableExpenseRequest true "Expense data"
// @Success     201 {object} map[string]interface{} "Created expense ID"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/variable-expenses [post]
func (h *ExpenseHandler) AddVariable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req VariableExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	id, err := h.budgetService.AddVariableExpense(userID, budget.VariableExpenseForm{
		Concept:  req.Concept,
		Category: req.Category,
		Date:     req.Date,
		Amount:   req.Amount,
		Note:     req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RemoveVariable deletes a variable expense
// @Summary     Remove variable expense
// @Description Delete a one-off expense from the session list
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /budget/variable-expenses/{id} [delete]
func (h *ExpenseHandler) RemoveVariable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.RemoveVariableExpense(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense removed successfully"})
}
