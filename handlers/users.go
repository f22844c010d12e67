package handlers

import (
	"errors"
	"net/http"

	"backend-gold/ledger"

	"github.com/gin-gonic/gin"
)

type CreateUserInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// POST /users, explicit creation for REQUIRE_EXISTING_USER deployments
func (h *Handler) CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.ledger.CreateUser(c.Request.Context(), ledger.Profile{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created", "data": user})
}

// GET /users/:user_id, profile plus gold holdings
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.ledger.GetUser(c.Request.Context(), userID)
	if errors.Is(err, ledger.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	holdings, err := h.ledger.Holdings(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"holdings": holdings,
	})
}
