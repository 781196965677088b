package lib

import (
	"context"
	"log"
	"os"

	"github.com/plutov/paypal/v4"
)

// PayPalGateway is the slice of the PayPal REST client the API depends on:
// order checkout for top-ups and batch payouts for host settlement and
// withdrawals.
type PayPalGateway interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, paymentSource *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
	CreatePayout(ctx context.Context, p paypal.Payout) (*paypal.PayoutResponse, error)
}

var paypalClient PayPalGateway

func GetPayPalClient() PayPalGateway {
	if paypalClient != nil {
		return paypalClient
	}
	clientID := os.Getenv("PAYPAL_CLIENT_ID")
	secret := os.Getenv("PAYPAL_CLIENT_SECRET")
	base := paypal.APIBaseSandBox
	if os.Getenv("PAYPAL_ENV") == "live" {
		base = paypal.APIBaseLive
	}
	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		log.Printf("[paypal] Error initializing client: %s\n", err.Error())
		return nil
	}
	if _, err := c.GetAccessToken(context.Background()); err != nil {
		log.Printf("[paypal] Error retrieving access token: %s\n", err.Error())
	}
	paypalClient = c
	return c
}

// NewPayPalClient replaces the gateway instance with a custom implementation
func NewPayPalClient(c PayPalGateway) {
	paypalClient = c
}
