package handlers

import (
	"net/http"

	"backend-gold/pricing"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": isoTime(h.now()),
	})
}

func (h *Handler) Price(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"price_per_gram_inr": h.oracle.PricePerGram(),
		"source":             pricing.Source,
	})
}
