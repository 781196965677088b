package models

import (
	"hbs/src/types"
	"time"
)

type Listing struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	HostID   uint   `json:"host_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Location string `json:"location,omitempty"`

	// NightlyPrice is in minor units. DiscountPercent is only honored while the
	// current date falls inside [DiscountStart, DiscountEnd]; either bound may
	// be open.
	NightlyPrice    int64      `json:"nightly_price"`
	DiscountPercent int        `json:"discount_percent,omitempty"`
	DiscountStart   *time.Time `json:"discount_start,omitempty"`
	DiscountEnd     *time.Time `json:"discount_end,omitempty"`
	PromoCode       *string    `json:"promo_code,omitempty"`

	Status types.ListingStatus `gorm:"default:'draft'" json:"status,omitempty"`

	Host         *User         `gorm:"foreignKey:host_id" json:"host,omitempty"`
	Reservations []Reservation `json:"reservations,omitempty"`

	types.Timestamps
}
