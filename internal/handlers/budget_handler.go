package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jorgenomente/hucha/internal/budget"
	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/services"
)

// BudgetHandler handles budget state requests: periods, incomes and personas.
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// RenameBudgetRequest renames the budget.
type RenameBudgetRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// SelectPeriodRequest switches the selected month. Month is 0-indexed
// (0 = January) to match the stored snapshot.
type SelectPeriodRequest struct {
	Year  int `json:"year" binding:"required,min=1"`
	Month int `json:"month" binding:"min=0,max=11"`
}

// MovementRequest is the add-movement payload. Amount is free-form text;
// unparsable values are recorded as 0.
type MovementRequest struct {
	Type     string `json:"type" binding:"required,movement_type"`
	Date     string `json:"date"`
	Concept  string `json:"concept"`
	Persona  string `json:"persona"`
	Amount   string `json:"amount" binding:"required"`
	Category string `json:"category"`
	Received bool   `json:"received"`
	Note     string `json:"note"`
}

// IncomeUpdateRequest edits the structural fields of an income entry.
// Omitted fields are left unchanged.
type IncomeUpdateRequest struct {
	Date    *string  `json:"date"`
	Source  *string  `json:"source"`
	Persona *string  `json:"persona"`
	Amount  *float64 `json:"amount"`
}

// RenamePersonaRequest renames a persona across all periods and the template.
type RenamePersonaRequest struct {
	OldName string `json:"old_name" binding:"required,notblank"`
	NewName string `json:"new_name" binding:"required,notblank,max=100"`
}

// PersonaThemeRequest sets a persona's theme hue.
type PersonaThemeRequest struct {
	Persona string `json:"persona" binding:"required,notblank"`
	Hue     int    `json:"hue" binding:"hue"`
}

// GetOverview returns the budget's name and selected period
// @Summary     Get budget overview
// @Description Get the budget's name, selected period and its display label
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetOverview "Budget overview"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budget [get]
func (h *BudgetHandler) GetOverview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.budgetService.Overview(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Rename renames the budget
// @Summary     Rename budget
// @Description Change the budget's display name
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RenameBudgetRequest true "New budget name"
// @Success     200 {object} MessageResponse "Budget renamed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget [patch]
func (h *BudgetHandler) Rename(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenameBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.Rename(userID, req.Name); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget renamed successfully"})
}

// SelectPeriod switches the selected month
// @Summary     Select period
// @Description Switch the selected month; a new period is seeded from the income template
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SelectPeriodRequest true "Year and 0-indexed month"
// @Success     200 {object} services.BudgetOverview "Updated overview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/period [put]
func (h *BudgetHandler) SelectPeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SelectPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.SelectPeriod(userID, req.Year, req.Month); err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.budgetService.Overview(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Reset wipes the budget state
// @Summary     Reset budget
// @Description Discard all budget data and start from an empty state at the current month
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Budget reset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/reset [post]
func (h *BudgetHandler) Reset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.Reset(userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget reset successfully"})
}

// GetSummary returns the selected period's totals
// @Summary     Get budget summary
// @Description Get total income, total paid expenses, balance and per-persona totals for the selected period
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetSummary "Period summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/summary [get]
func (h *BudgetHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.Summary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListIncomes returns the selected period's income entries
// @Summary     List incomes
// @Description List the income entries of the selected period, percentages included
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Income entries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/incomes [get]
func (h *BudgetHandler) ListIncomes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	incomes, err := h.budgetService.Incomes(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"incomes": incomes})
}

// AddMovement records an income or a fixed expense
// @Summary     Add movement
// @Description Record a movement; incomes propagate into the recurring template, expenses join the fixed list
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MovementRequest true "Movement data"
// @Success     201 {object} map[string]interface{} "Created entry ID"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/movements [post]
func (h *BudgetHandler) AddMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	id, err := h.budgetService.AddMovement(userID, budget.MovementForm{
		Type:     req.Type,
		Date:     req.Date,
		Concept:  req.Concept,
		Persona:  req.Persona,
		Amount:   req.Amount,
		Category: req.Category,
		Received: req.Received,
		Note:     req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ToggleReceived flips an income entry's received flag
// @Summary     Toggle income received
// @Description Toggle whether an income entry of the selected period has been received
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income entry ID"
// @Success     200 {object} MessageResponse "Flag toggled"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /budget/incomes/{id}/received [post]
func (h *BudgetHandler) ToggleReceived(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.ToggleReceived(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Income updated successfully"})
}

// UpdateIncome edits an income entry
// @Summary     Update income
// @Description Edit an income entry's date, source, persona or amount; changes propagate to the template and future periods
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income entry ID"
// @Param       request body IncomeUpdateRequest true "Fields to change"
// @Success     200 {object} MessageResponse "Income updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /budget/incomes/{id} [patch]
func (h *BudgetHandler) UpdateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := budget.IncomeUpdate{
		Date:    req.Date,
		Source:  req.Source,
		Persona: req.Persona,
		Amount:  req.Amount,
	}
	if err := h.budgetService.UpdateIncome(userID, c.Param("id"), update); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Income updated successfully"})
}

// RemoveIncome deletes an income entry
// @Summary     Remove income
// @Description Delete an income entry from the selected period and the template
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income entry ID"
// @Success     200 {object} MessageResponse "Income removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /budget/incomes/{id} [delete]
func (h *BudgetHandler) RemoveIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.RemoveIncome(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Income removed successfully"})
}

// ListPersonas returns the persona roster and theme hues
// @Summary     List personas
// @Description List the persona roster in first-appearance order with each persona's theme hue
// @Tags        personas
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Personas and themes"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/personas [get]
func (h *BudgetHandler) ListPersonas(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	roster, themes, err := h.budgetService.Personas(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"personas": roster,
		"themes":   themes,
	})
}

// RenamePersona renames a persona everywhere it appears
// @Summary     Rename persona
// @Description Rename a persona across every period, the template, the roster and its theme
// @Tags        personas
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RenamePersonaRequest true "Old and new persona names"
// @Success     200 {object} MessageResponse "Persona renamed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/personas/rename [post]
func (h *BudgetHandler) RenamePersona(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenamePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.RenamePersona(userID, req.OldName, req.NewName); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Persona renamed successfully"})
}

// SetPersonaTheme sets a persona's theme hue
// @Summary     Set persona theme
// @Description Assign a theme hue (0-359) to a persona
// @Tags        personas
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PersonaThemeRequest true "Persona and hue"
// @Success     200 {object} MessageResponse "Theme updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/personas/theme [put]
func (h *BudgetHandler) SetPersonaTheme(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PersonaThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.budgetService.SetPersonaThemeHue(userID, req.Persona, req.Hue); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Persona theme updated successfully"})
}
