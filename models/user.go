package models

import "time"

type User struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`

	CreatedAt time.Time `json:"created_at"`

	// relations
	Purchases []Purchase `gorm:"foreignKey:UserID" json:"-"`
}
