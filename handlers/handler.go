package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"backend-gold/advisor"
	"backend-gold/ledger"
	"backend-gold/middleware"
	"backend-gold/models"
	"backend-gold/pricing"

	"github.com/gin-gonic/gin"
)

// Ledger is what the handlers need from the purchase store.
type Ledger interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
	CreateUser(ctx context.Context, p ledger.Profile) (models.User, error)
	EnsureUser(ctx context.Context, id uint) (models.User, error)
	RecordPurchase(ctx context.Context, userID uint, q pricing.Quote, autoCreate bool) (models.Purchase, error)
	ListPurchases(ctx context.Context, userID uint) ([]models.Purchase, error)
	Holdings(ctx context.Context, userID uint) (ledger.Holdings, error)
}

type Options struct {
	// RequireExistingUser turns off implicit user creation on /purchase.
	RequireExistingUser bool
}

type Handler struct {
	ledger     Ledger
	oracle     pricing.Oracle
	classifier advisor.Classifier
	opts       Options
	now        func() time.Time
}

func NewHandler(l Ledger, oracle pricing.Oracle, classifier advisor.Classifier, opts Options) *Handler {
	return &Handler{
		ledger:     l,
		oracle:     oracle,
		classifier: classifier,
		opts:       opts,
		now:        time.Now,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/price", h.Price)

	r.POST("/advisor", h.Advisor)

	r.POST("/purchase", h.Purchase)
	r.GET("/purchases/:user_id", h.ListPurchases)
	r.GET("/purchases/:user_id/export", h.ExportPurchases)

	r.POST("/users", h.CreateUser)
	r.GET("/users/:user_id", h.GetUser)
}

// Helper: parse :user_id, writes a 400 on failure.
func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a non-negative integer"})
		return 0, false
	}
	return uint(id), true
}

// Helper: storage failures are 500s, logged with the request id.
func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	middleware.Log(c).WithError(err).Error("storage error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
