package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ListingStatus string

const (
	LISTING_DRAFT    ListingStatus = "draft"
	LISTING_OPEN     ListingStatus = "open"
	LISTING_CLOSED   ListingStatus = "closed"
	LISTING_ARCHIVED ListingStatus = "archived"
)

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
)

type TransactionType string

const (
	TRANSACTION_TOPUP      TransactionType = "topup"
	TRANSACTION_PAYMENT    TransactionType = "payment"
	TRANSACTION_WITHDRAWAL TransactionType = "withdrawal"
	TRANSACTION_DEPOSIT    TransactionType = "deposit"
)

type TransactionStatus string

const (
	TRANSACTION_PENDING   TransactionStatus = "pending"
	TRANSACTION_COMPLETED TransactionStatus = "completed"
	TRANSACTION_FAILED    TransactionStatus = "failed"
)

type PaymentMethod string

const (
	PAYMENT_BALANCE PaymentMethod = "balance"
	PAYMENT_PAYPAL  PaymentMethod = "paypal"
)

// PricingBreakdown is the frozen cost snapshot for a stay. Amounts are integer
// minor units. Once written onto a Reservation it is never re-derived.
type PricingBreakdown struct {
	NightlyPrice    int64   `json:"nightly_price"`
	Nights          int64   `json:"nights"`
	BaseTotal       int64   `json:"base_total"`
	DiscountPercent int     `json:"discount_percent"`
	DiscountAmount  int64   `json:"discount_amount"`
	Subtotal        int64   `json:"subtotal"`
	ServiceFee      int64   `json:"service_fee"`
	GrandTotal      int64   `json:"grand_total"`
	PromoCode       *string `json:"promo_code,omitempty"`
}

type CreateListingRequestBody struct {
	Title           string  `json:"title" binding:"required"`
	Location        string  `json:"location" binding:"required"`
	NightlyPrice    int64   `json:"nightly_price" binding:"required,gte=0"`
	DiscountPercent int     `json:"discount_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	DiscountStart   *string `json:"discount_start,omitempty" binding:"omitempty,staydate"`
	DiscountEnd     *string `json:"discount_end,omitempty" binding:"omitempty,staydate"`
	PromoCode       *string `json:"promo_code,omitempty"`
	Publish         bool    `json:"publish,omitempty"`
}

type UpdateListingRequestBody struct {
	Title           *string `json:"title,omitempty"`
	Location        *string `json:"location,omitempty"`
	NightlyPrice    *int64  `json:"nightly_price,omitempty" binding:"omitempty,gte=0"`
	DiscountPercent *int    `json:"discount_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	DiscountStart   *string `json:"discount_start,omitempty" binding:"omitempty,staydate"`
	DiscountEnd     *string `json:"discount_end,omitempty" binding:"omitempty,staydate"`
	PromoCode       *string `json:"promo_code,omitempty"`
}

type CreateReservationRequestBody struct {
	ListingID     uint    `json:"listing_id" binding:"required"`
	CheckIn       string  `json:"check_in" binding:"required,staydate"`
	CheckOut      string  `json:"check_out" binding:"required,staydate,afterdate=CheckIn"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=balance paypal"`
	PromoCode     *string `json:"promo_code,omitempty"`
}

type TopUpRequestBody struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type CaptureTopUpRequestBody struct {
	OrderID string `json:"order_id" binding:"required"`
}

type WithdrawRequestBody struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type RegisterUserRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role,omitempty" binding:"omitempty,oneof=guest host"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
