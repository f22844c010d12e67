package models

import "time"

const (
	ProviderDigitalGold = "SimplifyMoney-DigitalGold"
	StatusSuccess       = "SUCCESS"
)

// Purchase is one append-only ledger entry. InrAmount is always
// round(Grams*PricePerGram, 2) using the stored Grams.
type Purchase struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	TxnID        string    `gorm:"column:txn_id;size:36;uniqueIndex;not null" json:"txn_id"`
	Grams        float64   `gorm:"not null" json:"grams"`
	InrAmount    float64   `gorm:"column:inr_amount;not null" json:"inr_amount"`
	PricePerGram float64   `gorm:"not null" json:"price_per_gram"`
	Provider     string    `gorm:"default:SimplifyMoney-DigitalGold" json:"provider"`
	Status       string    `gorm:"default:SUCCESS" json:"status"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
