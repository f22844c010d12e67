package handlers

import (
	"net/http"

	"backend-gold/advisor"
	"backend-gold/ledger"
	"backend-gold/metrics"

	"github.com/gin-gonic/gin"
)

type AdvisorInput struct {
	Message string  `json:"message" binding:"required"`
	UserID  *uint   `json:"user_id"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
}

type AdvisorResponse struct {
	IsGoldRelated      bool                `json:"is_gold_related"`
	Response           string              `json:"response"`
	SuggestPurchase    bool                `json:"suggest_purchase"`
	RedirectToPurchase bool                `json:"redirect_to_purchase"`
	NextAction         *advisor.NextAction `json:"next_action"`
	UserID             *uint               `json:"user_id"`
}

// POST /advisor
func (h *Handler) Advisor(c *gin.Context) {
	var input AdvisorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. Resolve the user: a given id is used as-is (created if missing),
	// otherwise any profile field creates a fresh user.
	var userID *uint
	profile := ledger.Profile{Name: input.Name, Email: input.Email, Phone: input.Phone}
	switch {
	case input.UserID != nil && *input.UserID == 0:
		// 0 is never a stored id; neither looked up nor used to create
	case input.UserID != nil:
		user, err := h.ledger.EnsureUser(c.Request.Context(), *input.UserID)
		if err != nil {
			serverError(c, err)
			return
		}
		userID = &user.ID
	case !profile.Empty():
		user, err := h.ledger.CreateUser(c.Request.Context(), profile)
		if err != nil {
			serverError(c, err)
			return
		}
		userID = &user.ID
	}

	// 2. Classify and compose
	advice := h.classifier.Advise(input.Message, h.oracle.PricePerGram(), userID)
	metrics.RecordAdvice(advice.IsGoldRelated, advice.RedirectToPurchase)

	c.JSON(http.StatusOK, AdvisorResponse{
		IsGoldRelated:      advice.IsGoldRelated,
		Response:           advice.Response,
		SuggestPurchase:    advice.SuggestPurchase,
		RedirectToPurchase: advice.RedirectToPurchase,
		NextAction:         advice.NextAction,
		UserID:             userID,
	})
}
