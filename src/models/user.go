package models

import (
	"hbs/src/types"
)

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	// Balance is the platform-internal ledger balance in minor units. It is
	// mutated only through the ledger operations in utils; handlers never
	// write this column directly.
	Balance int64 `gorm:"not null;default:0" json:"balance"`

	PaymentMethod   string  `json:"payment_method,omitempty"`
	PayoutEmail     *string `json:"-"`
	PaypalAccountID *string `json:"-"`

	Listings     []Listing     `gorm:"foreignKey:host_id" json:"listings,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:guest_id" json:"reservations,omitempty"`

	types.Timestamps
}
