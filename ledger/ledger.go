package ledger

import (
	"context"
	"errors"
	"fmt"

	"backend-gold/models"
	"backend-gold/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidUserID = errors.New("user id must be positive")
)

// Store is the users/purchases ledger. Every call runs on its own
// context-scoped session; there is no state kept between calls.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Holdings sums a user's purchases.
type Holdings struct {
	Purchases  int64   `json:"purchases"`
	TotalGrams float64 `json:"total_grams"`
	TotalInr   float64 `json:"total_inr"`
}

type Profile struct {
	Name  *string
	Email *string
	Phone *string
}

func (p Profile) Empty() bool {
	return blank(p.Name) && blank(p.Email) && blank(p.Phone)
}

func blank(s *string) bool {
	return s == nil || *s == ""
}

func (s *Store) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, p Profile) (models.User, error) {
	user := models.User{Name: p.Name, Email: p.Email, Phone: p.Phone}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureUser returns the user with the given id, creating a bare row with
// exactly that id when none exists.
func (s *Store) EnsureUser(ctx context.Context, id uint) (models.User, error) {
	return ensureUser(s.db.WithContext(ctx), id)
}

func ensureUser(tx *gorm.DB, id uint) (models.User, error) {
	// id 0 would let the database pick a key and orphan the caller's rows
	if id == 0 {
		return models.User{}, ErrInvalidUserID
	}
	var user models.User
	err := tx.First(&user, id).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	user = models.User{ID: id}
	if err := tx.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user %d: %w", id, err)
	}
	return user, nil
}

// RecordPurchase appends one purchase for userID. When autoCreate is false
// an unknown user yields ErrUserNotFound instead of a new row.
func (s *Store) RecordPurchase(ctx context.Context, userID uint, q pricing.Quote, autoCreate bool) (models.Purchase, error) {
	purchase := models.Purchase{
		UserID:       userID,
		TxnID:        uuid.NewString(),
		Grams:        q.Grams,
		InrAmount:    q.InrAmount,
		PricePerGram: q.PricePerGram,
		Provider:     models.ProviderDigitalGold,
		Status:       models.StatusSuccess,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if autoCreate {
			if _, err := ensureUser(tx, userID); err != nil {
				return err
			}
		} else {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return fmt.Errorf("get user %d: %w", userID, err)
			}
			if count == 0 {
				return ErrUserNotFound
			}
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Purchase{}, err
	}
	return purchase, nil
}

// ListPurchases returns the user's purchases, newest first. Never nil.
func (s *Store) ListPurchases(ctx context.Context, userID uint) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("list purchases for user %d: %w", userID, err)
	}
	return purchases, nil
}

func (s *Store) Holdings(ctx context.Context, userID uint) (Holdings, error) {
	var h Holdings
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ?", userID).
		Select("COUNT(*) AS purchases, COALESCE(SUM(grams), 0) AS total_grams, COALESCE(SUM(inr_amount), 0) AS total_inr").
		Scan(&h).Error
	if err != nil {
		return Holdings{}, fmt.Errorf("holdings for user %d: %w", userID, err)
	}
	// float sums drift, report them at ledger precision
	h.TotalGrams = decimal.NewFromFloat(h.TotalGrams).Round(pricing.GramsPlaces).InexactFloat64()
	h.TotalInr = decimal.NewFromFloat(h.TotalInr).Round(pricing.InrPlaces).InexactFloat64()
	return h, nil
}
