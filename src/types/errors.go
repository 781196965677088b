package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange         = errors.New("check-out date must be after check-in date")
	ErrInvalidDiscount          = errors.New("discount percent must be between 0 and 100")
	ErrListingUnavailable       = errors.New("listing is not available for the selected dates")
	ErrPayoutDestinationMissing = errors.New("no payout destination on record")
)

// InsufficientBalanceError reports by how much a debit would overdraw the ledger.
type InsufficientBalanceError struct {
	Shortfall int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: short by %d", e.Shortfall)
}

// PayoutFailedError signals that the provider payout did not complete and the
// guest debit has been reversed.
type PayoutFailedError struct {
	Reason string
	Err    error
}

func (e *PayoutFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payout failed: %s: %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("payout failed: %s", e.Reason)
}

func (e *PayoutFailedError) Unwrap() error {
	return e.Err
}
