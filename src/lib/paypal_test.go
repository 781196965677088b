package lib

import (
	"testing"

	"github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
)

// The REST client must keep satisfying the gateway surface the API depends on.
var _ PayPalGateway = (*paypal.Client)(nil)

func TestGetPayPalClientRequiresCredentials(t *testing.T) {
	t.Setenv("PAYPAL_CLIENT_ID", "")
	t.Setenv("PAYPAL_CLIENT_SECRET", "")
	prev := paypalClient
	paypalClient = nil
	defer func() { paypalClient = prev }()

	assert.Nil(t, GetPayPalClient())
}
