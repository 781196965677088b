package models

import (
	"hbs/src/types"
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID        uint `gorm:"primarykey" json:"id"`
	GuestID   uint `json:"guest_id,omitempty"`
	HostID    uint `json:"host_id,omitempty"`
	ListingID uint `json:"listing_id,omitempty"`

	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`

	// Pricing snapshot, frozen at creation. Re-pricing the listing later must
	// not change these amounts.
	NightlyPrice    int64   `json:"nightly_price"`
	Nights          int64   `json:"nights"`
	BaseTotal       int64   `json:"base_total"`
	DiscountPercent int     `json:"discount_percent,omitempty"`
	DiscountAmount  int64   `json:"discount_amount"`
	Subtotal        int64   `json:"subtotal"`
	ServiceFee      int64   `json:"service_fee"`
	GrandTotal      int64   `json:"grand_total"`
	PromoCode       *string `json:"promo_code,omitempty"`

	Status        types.ReservationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentMethod types.PaymentMethod     `json:"payment_method,omitempty"`

	// PaymentReference is a masked payout destination, safe to show to users.
	PaymentReference *string    `json:"payment_reference,omitempty"`
	ProviderBatchID  *string    `json:"provider_batch_id,omitempty"`
	TransactionID    *uuid.UUID `gorm:"type:uuid" json:"transaction_id,omitempty"`

	Listing *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Guest   *User    `gorm:"foreignKey:guest_id" json:"guest,omitempty"`
	Host    *User    `gorm:"foreignKey:host_id" json:"host,omitempty"`

	types.Timestamps
}
