package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/pagination"
	"github.com/jorgenomente/hucha/internal/services"
)

// InviteHandler handles budget sharing: invites and memberships.
type InviteHandler struct {
	inviteService services.InviteServicer
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(inviteService services.InviteServicer) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInviteRequest invites an email address to the caller's budget.
type CreateInviteRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// AcceptInviteRequest redeems an invite token.
type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateInvite invites an email address to the budget
// @Summary     Create invite
// @Description Invite an email address to join the caller's budget; the invite email is dispatched asynchronously
// @Tags        invites
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInviteRequest true "Invitee email"
// @Success     201 {object} map[string]interface{} "Created invite"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Only the owner can invite"
// @Failure     409 {object} ErrorResponse "Already a member or already invited"
// @Router      /invites [post]
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invite, err := h.inviteService.CreateInvite(c.Request.Context(), userID, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

// ListInvites returns the budget's invites
// @Summary     List invites
// @Description List the invites sent for the caller's budget
// @Tags        invites
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[models.BudgetInvite] "Invites"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Only the owner can list invites"
// @Router      /invites [get]
func (h *InviteHandler) ListInvites(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	invites, err := h.inviteService.ListInvites(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

// RevokeInvite cancels a pending invite
// @Summary     Revoke invite
// @Description Revoke an open invite so its token can no longer be redeemed
// @Tags        invites
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Invite ID"
// @Success     200 {object} MessageResponse "Invite revoked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Only the owner can revoke"
// @Failure     404 {object} ErrorResponse "Invite not found"
// @Router      /invites/{id} [delete]
func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	inviteID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.inviteService.RevokeInvite(userID, inviteID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite revoked successfully"})
}

// AcceptInvite redeems an invite token
// @Summary     Accept invite
// @Description Join the inviting budget using the token from the invite email
// @Tags        invites
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AcceptInviteRequest true "Invite token"
// @Success     200 {object} map[string]interface{} "New membership"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /invites/accept [post]
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.inviteService.AcceptInvite(userID, req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership": member})
}

// ListMembers returns the budget's members
// @Summary     List members
// @Description List the accounts sharing the caller's budget
// @Tags        invites
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[models.BudgetMember] "Members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /members [get]
func (h *InviteHandler) ListMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	members, err := h.inviteService.ListMembers(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// MarkInviteSent is the mail worker's delivery callback
// @Summary     Mark invite sent
// @Description Mark a pending invite as sent; called by the mail worker after dispatching the email
// @Tags        internal
// @Produce     json
// @Param       id path int true "Invite ID"
// @Success     200 {object} MessageResponse "Invite marked sent"
// @Failure     401 {object} ErrorResponse "Missing or invalid API key"
// @Failure     404 {object} ErrorResponse "Invite not found"
// @Router      /internal/invites/{id}/sent [post]
func (h *InviteHandler) MarkInviteSent(c *gin.Context) {
	inviteID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.inviteService.MarkInviteSent(inviteID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite marked as sent"})
}
