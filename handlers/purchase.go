package handlers

import (
	"errors"
	"net/http"

	"backend-gold/ledger"
	"backend-gold/metrics"
	"backend-gold/middleware"
	"backend-gold/pricing"

	"github.com/gin-gonic/gin"
)

const purchaseSuccessMessage = "Digital gold purchase successful (demo)."

type PurchaseInput struct {
	UserID      *uint    `json:"user_id" binding:"required,min=1"`
	AmountInINR *float64 `json:"amount_in_inr" binding:"omitempty,gte=1"`
	Grams       *float64 `json:"grams" binding:"omitempty,gte=0.01"`
}

type PurchaseReceipt struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	TxnID        string  `json:"txn_id"`
	UserID       uint    `json:"user_id"`
	Grams        float64 `json:"grams"`
	InrAmount    float64 `json:"inr_amount"`
	PricePerGram float64 `json:"price_per_gram"`
	Provider     string  `json:"provider"`
	CreatedAt    string  `json:"created_at"`
}

type PurchaseItem struct {
	TxnID        string  `json:"txn_id"`
	Grams        float64 `json:"grams"`
	InrAmount    float64 `json:"inr_amount"`
	PricePerGram float64 `json:"price_per_gram"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

// POST /purchase
func (h *Handler) Purchase(c *gin.Context) {
	var input PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.AmountInINR == nil && input.Grams == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide either amount_in_inr or grams"})
		return
	}

	// 1. Convert at the fixed price; amount wins when both are sent
	var quote pricing.Quote
	if input.AmountInINR != nil {
		quote = h.oracle.FromAmount(*input.AmountInINR)
	} else {
		quote = h.oracle.FromGrams(*input.Grams)
	}

	// 2. Persist
	purchase, err := h.ledger.RecordPurchase(c.Request.Context(), *input.UserID, quote, !h.opts.RequireExistingUser)
	if errors.Is(err, ledger.ErrInvalidUserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, ledger.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	metrics.RecordPurchase(purchase.Grams, purchase.InrAmount)
	middleware.Log(c).WithField("txn_id", purchase.TxnID).
		WithField("user_id", purchase.UserID).
		WithField("grams", purchase.Grams).
		Info("purchase recorded")

	c.JSON(http.StatusOK, PurchaseReceipt{
		Success:      true,
		Message:      purchaseSuccessMessage,
		TxnID:        purchase.TxnID,
		UserID:       purchase.UserID,
		Grams:        purchase.Grams,
		InrAmount:    purchase.InrAmount,
		PricePerGram: purchase.PricePerGram,
		Provider:     purchase.Provider,
		CreatedAt:    isoTime(purchase.CreatedAt),
	})
}

// GET /purchases/:user_id, newest first
func (h *Handler) ListPurchases(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	purchases, err := h.ledger.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}

	items := make([]PurchaseItem, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, PurchaseItem{
			TxnID:        p.TxnID,
			Grams:        p.Grams,
			InrAmount:    p.InrAmount,
			PricePerGram: p.PricePerGram,
			Status:       p.Status,
			CreatedAt:    isoTime(p.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, items)
}
