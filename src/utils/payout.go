package utils

import (
	"context"
	"errors"
	"fmt"
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/plutov/paypal/v4"
	"gorm.io/gorm"
)

const (
	RecipientTypeEmail    = "EMAIL"
	RecipientTypePayPalID = "PAYPAL_ID"
)

type PayoutDestination struct {
	Receiver      string
	RecipientType string
}

type SettlementState string

const (
	SettlementNotStarted SettlementState = "not_started"
	SettlementDebited    SettlementState = "debited"
	SettlementPaidOut    SettlementState = "paid_out"
	// SettlementRetained marks a completed booking whose subtotal stayed on the
	// platform account because the host has no payout destination.
	SettlementRetained SettlementState = "retained"
	SettlementRefunded SettlementState = "refunded"
)

type SettlementInput struct {
	GuestID     uint
	Host        *models.User
	Pricing     *types.PricingBreakdown
	Currency    string
	ReferenceID string
	Note        string
}

type SettlementResult struct {
	State         SettlementState
	NewBalance    int64
	TransactionID *LedgerResult
	BatchID       *string
	Destination   *PayoutDestination
}

// FormatAmount renders minor units as the decimal string the provider expects.
func FormatAmount(minorUnits int64) string {
	sign := ""
	if minorUnits < 0 {
		sign = "-"
		minorUnits = -minorUnits
	}
	return fmt.Sprintf("%s%d.%02d", sign, minorUnits/100, minorUnits%100)
}

// MaskReference hides most of a payout destination so it can be echoed back to
// users in payment summaries.
func MaskReference(ref string) string {
	if at := strings.IndexByte(ref, '@'); at > 0 {
		name := ref[:at]
		if len(name) > 2 {
			name = name[:2] + strings.Repeat("*", len(name)-2)
		}
		return name + ref[at:]
	}
	if len(ref) > 4 {
		return strings.Repeat("*", len(ref)-4) + ref[len(ref)-4:]
	}
	return ref
}

// PayoutDestinationFor picks the recipient reference for a user. The provider
// account id wins over email when both are recorded, since it is unambiguous.
func PayoutDestinationFor(user *models.User) (*PayoutDestination, error) {
	if user == nil {
		return nil, types.ErrPayoutDestinationMissing
	}
	if user.PaypalAccountID != nil && *user.PaypalAccountID != "" {
		return &PayoutDestination{Receiver: *user.PaypalAccountID, RecipientType: RecipientTypePayPalID}, nil
	}
	if user.PayoutEmail != nil && *user.PayoutEmail != "" {
		return &PayoutDestination{Receiver: *user.PayoutEmail, RecipientType: RecipientTypeEmail}, nil
	}
	return nil, types.ErrPayoutDestinationMissing
}

// SendPayout moves amount from the platform account to dest and returns the
// provider batch id. A response without a batch id counts as failure.
func SendPayout(ctx context.Context, dest *PayoutDestination, amount int64, currency, note, itemID string) (string, error) {
	pc := lib.GetPayPalClient()
	if pc == nil {
		return "", errors.New("payment provider is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, config.PayPalTimeout())
	defer cancel()
	payout := paypal.Payout{
		SenderBatchHeader: &paypal.SenderBatchHeader{
			SenderBatchID: itemID,
			EmailSubject:  "You have received a payout",
		},
		Items: []paypal.PayoutItem{
			{
				RecipientType: dest.RecipientType,
				Receiver:      dest.Receiver,
				Amount: &paypal.AmountPayout{
					Currency: currency,
					Value:    FormatAmount(amount),
				},
				Note:         note,
				SenderItemID: itemID,
			},
		},
	}
	res, err := pc.CreatePayout(ctx, payout)
	if err != nil {
		return "", err
	}
	if res == nil || res.BatchHeader == nil || res.BatchHeader.PayoutBatchID == "" {
		return "", errors.New("payout response is missing a batch id")
	}
	return res.BatchHeader.PayoutBatchID, nil
}

// SettleBooking runs the two-way payment split for a captured grand total:
// debit the guest ledger, pay the subtotal to the host, retain the service fee
// on the platform account. Strictly sequential; the refund path depends on the
// debit having committed first. Net effect is exactly one of: no balance
// change, guest debited and host paid, guest debited then fully refunded.
func SettleBooking(ctx context.Context, in SettlementInput) (*SettlementResult, error) {
	result := &SettlementResult{State: SettlementNotStarted}
	// Reject before money moves: a host row gone missing (soft-deleted between
	// listing load and settlement) must leave the ledger untouched.
	if in.Host == nil {
		return result, errors.New("host account is no longer available")
	}
	grandTotal := in.Pricing.GrandTotal

	balance, err := GetBalance(in.GuestID)
	if err != nil {
		return result, err
	}
	if grandTotal > balance {
		return result, &types.InsufficientBalanceError{Shortfall: grandTotal - balance}
	}

	debit, err := Debit(in.GuestID, grandTotal, LedgerContext{
		Type:        types.TRANSACTION_PAYMENT,
		ReferenceID: in.ReferenceID,
		Currency:    in.Currency,
	})
	if err != nil {
		return result, err
	}
	result.State = SettlementDebited
	result.NewBalance = debit.NewBalance
	result.TransactionID = debit

	dest, err := PayoutDestinationFor(in.Host)
	if errors.Is(err, types.ErrPayoutDestinationMissing) {
		// Degraded mode: the booking completes, the host gets paid out of band.
		log.Printf("Host %d has no payout destination; retaining subtotal for manual settlement [%s]\n", in.Host.ID, in.ReferenceID)
		result.State = SettlementRetained
		return result, nil
	}
	if err != nil {
		return result, err
	}
	result.Destination = dest

	batchID, err := SendPayout(ctx, dest, in.Pricing.Subtotal, in.Currency, in.Note, in.ReferenceID)
	if err != nil {
		log.Printf("Payout for [%s] failed, refunding guest %d: %s\n", in.ReferenceID, in.GuestID, err.Error())
		if _, rerr := Refund(in.GuestID, grandTotal, &debit.TransactionID, in.ReferenceID); rerr != nil {
			log.Printf("Refund for [%s] failed, ledger needs manual reconciliation: %s\n", in.ReferenceID, rerr.Error())
			return result, &types.PayoutFailedError{Reason: "payout and compensating refund both failed", Err: errors.Join(err, rerr)}
		}
		result.State = SettlementRefunded
		return result, &types.PayoutFailedError{Reason: "provider payout did not complete", Err: err}
	}
	result.State = SettlementPaidOut
	result.BatchID = &batchID

	if err := attachProviderRefs(debit.TransactionID, batchID); err != nil {
		log.Printf("Could not attach provider refs to transaction %s: %s\n", debit.TransactionID.String(), err.Error())
	}
	return result, nil
}

func attachProviderRefs(txnID uuid.UUID, batchID string) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Transaction{}).
			Where("id = ?", txnID.String()).
			Update("provider_batch_id", batchID).
			Error
	})
}

// WithdrawFunds moves ledger balance out to the user's own payout destination,
// with the same compensation discipline as booking settlement.
func WithdrawFunds(ctx context.Context, user *models.User, amount int64, referenceID string) (*SettlementResult, error) {
	result := &SettlementResult{State: SettlementNotStarted}

	dest, err := PayoutDestinationFor(user)
	if err != nil {
		return result, err
	}
	result.Destination = dest

	debit, err := Debit(user.ID, amount, LedgerContext{
		Type:        types.TRANSACTION_WITHDRAWAL,
		ReferenceID: referenceID,
		Currency:    config.Currency(),
	})
	if err != nil {
		return result, err
	}
	result.State = SettlementDebited
	result.NewBalance = debit.NewBalance
	result.TransactionID = debit

	batchID, err := SendPayout(ctx, dest, amount, config.Currency(), "Balance withdrawal", referenceID)
	if err != nil {
		log.Printf("Withdrawal payout for [%s] failed, refunding user %d: %s\n", referenceID, user.ID, err.Error())
		if _, rerr := Refund(user.ID, amount, &debit.TransactionID, referenceID); rerr != nil {
			log.Printf("Refund for [%s] failed, ledger needs manual reconciliation: %s\n", referenceID, rerr.Error())
			return result, &types.PayoutFailedError{Reason: "payout and compensating refund both failed", Err: errors.Join(err, rerr)}
		}
		result.State = SettlementRefunded
		return result, &types.PayoutFailedError{Reason: "provider payout did not complete", Err: err}
	}
	result.State = SettlementPaidOut
	result.BatchID = &batchID

	if err := attachProviderRefs(debit.TransactionID, batchID); err != nil {
		log.Printf("Could not attach provider refs to transaction %s: %s\n", debit.TransactionID.String(), err.Error())
	}
	return result, nil
}
