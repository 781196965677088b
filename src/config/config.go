package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// DATE_PARSE_FORMAT is the wire format for stay dates. Calendar days only; any
// time-of-day component is stripped at the boundary.
const DATE_PARSE_FORMAT = "2006-01-02"

// ServiceFee is the flat platform fee in minor units added to every booking.
func ServiceFee() int64 {
	v := os.Getenv("SERVICE_FEE")
	fee, err := strconv.ParseInt(v, 10, 64)
	if err != nil || fee < 0 {
		return 300
	}
	return fee
}

// PayPalTimeout bounds every call to the payment provider. A timed-out payout
// is treated as failed and triggers the compensating refund.
func PayPalTimeout() time.Duration {
	v := os.Getenv("PAYPAL_TIMEOUT_SECONDS")
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(secs) * time.Second
}

func Currency() string {
	c := os.Getenv("PLATFORM_CURRENCY")
	if c == "" {
		return "USD"
	}
	return c
}
