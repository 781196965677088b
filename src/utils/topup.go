package utils

import (
	"context"
	"errors"
	"fmt"
	"hbs/src/config"
	"hbs/src/lib"
	"hbs/src/types"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"
)

// ParseAmount converts a provider decimal string back to minor units. The
// sign is peeled off up front; deriving it from the whole part loses it for
// values between -1 and 0, where the whole part is "-0".
func ParseAmount(s string) (int64, error) {
	raw := s
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("malformed amount %q", raw)
	}
	var cents int64
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("malformed amount %q", raw)
		}
	}
	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

func topUpCacheKey(orderID string) string {
	return fmt.Sprintf("topup:%s", orderID)
}

// CreateTopUpOrder opens a provider checkout for adding funds to the internal
// balance. The ledger credit happens only at capture time.
func CreateTopUpOrder(ctx context.Context, userID uint, amount int64) (orderID string, approveURL string, err error) {
	pc := lib.GetPayPalClient()
	if pc == nil {
		return "", "", errors.New("payment provider is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, config.PayPalTimeout())
	defer cancel()
	order, err := pc.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{
		{
			ReferenceID: fmt.Sprintf("topup_%d", userID),
			CustomID:    fmt.Sprint(userID),
			Description: "Balance top-up",
			Amount: &paypal.PurchaseUnitAmount{
				Currency: config.Currency(),
				Value:    FormatAmount(amount),
			},
		},
	}, nil, nil)
	if err != nil {
		return "", "", err
	}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if err := rd.SetEx(ctx, topUpCacheKey(order.ID), amount, 1*time.Hour).Err(); err != nil {
			log.Printf("Error caching top-up order %s: %s\n", order.ID, err.Error())
		}
	}
	return order.ID, approveURL, nil
}

// CaptureTopUp captures an approved order and credits the ledger. The amount
// is taken from the provider's capture response; the cached amount from order
// creation is the fallback.
func CaptureTopUp(ctx context.Context, userID uint, orderID string) (*LedgerResult, error) {
	pc := lib.GetPayPalClient()
	if pc == nil {
		return nil, errors.New("payment provider is not configured")
	}
	cctx, cancel := context.WithTimeout(ctx, config.PayPalTimeout())
	defer cancel()
	res, err := pc.CaptureOrder(cctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, err
	}
	if res.Status != "COMPLETED" {
		return nil, fmt.Errorf("order %s capture did not complete: status=%s", orderID, res.Status)
	}
	amount := capturedAmount(res)
	if amount <= 0 {
		if rd := lib.GetRedisClient(); rd != nil {
			cached, err := rd.Get(context.Background(), topUpCacheKey(orderID)).Int64()
			if err == nil {
				amount = cached
			}
		}
	}
	if amount <= 0 {
		return nil, fmt.Errorf("could not determine captured amount for order %s", orderID)
	}
	return Credit(userID, amount, LedgerContext{
		Type:        types.TRANSACTION_TOPUP,
		ReferenceID: orderID,
		Currency:    config.Currency(),
		Metadata:    types.JSONB{"order_id": orderID},
	})
}

func capturedAmount(res *paypal.CaptureOrderResponse) int64 {
	var total int64
	for _, pu := range res.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for _, c := range pu.Payments.Captures {
			if c.Amount == nil {
				continue
			}
			v, err := ParseAmount(c.Amount.Value)
			if err != nil {
				log.Printf("Skipping malformed capture amount %q: %s\n", c.Amount.Value, err.Error())
				continue
			}
			total += v
		}
	}
	return total
}
