package utils

import (
	"context"
	"errors"
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
)

type fakeGateway struct {
	payouts   []paypal.Payout
	payoutErr error
	batchID   string

	order      *paypal.Order
	capture    *paypal.CaptureOrderResponse
	captureErr error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, paymentSource *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error) {
	return f.order, nil
}

func (f *fakeGateway) CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	return f.capture, f.captureErr
}

func (f *fakeGateway) CreatePayout(ctx context.Context, p paypal.Payout) (*paypal.PayoutResponse, error) {
	f.payouts = append(f.payouts, p)
	if f.payoutErr != nil {
		return nil, f.payoutErr
	}
	return &paypal.PayoutResponse{
		BatchHeader: &paypal.BatchHeader{PayoutBatchID: f.batchID},
	}, nil
}

func hostWithEmail() *models.User {
	email := "host@example.com"
	return &models.User{ID: 2, Email: email, PayoutEmail: &email}
}

func settlementInput(host *models.User) SettlementInput {
	return SettlementInput{
		GuestID: 1,
		Host:    host,
		Pricing: &types.PricingBreakdown{
			Subtotal:   5400,
			ServiceFee: 300,
			GrandTotal: 5700,
		},
		Currency:    "USD",
		ReferenceID: "booking-1",
		Note:        "Booking payout",
	}
}

func TestPayoutDestinationFor(t *testing.T) {
	accountID := "HOSTACCT123"
	email := "host@example.com"

	dest, err := PayoutDestinationFor(&models.User{PaypalAccountID: &accountID, PayoutEmail: &email})
	assert.NoError(t, err)
	assert.Equal(t, RecipientTypePayPalID, dest.RecipientType)
	assert.Equal(t, accountID, dest.Receiver)

	dest, err = PayoutDestinationFor(&models.User{PayoutEmail: &email})
	assert.NoError(t, err)
	assert.Equal(t, RecipientTypeEmail, dest.RecipientType)

	_, err = PayoutDestinationFor(&models.User{})
	assert.ErrorIs(t, err, types.ErrPayoutDestinationMissing)

	_, err = PayoutDestinationFor(nil)
	assert.ErrorIs(t, err, types.ErrPayoutDestinationMissing)
}

func TestSettleBookingSuccess(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{batchID: "BATCH123"}
	lib.NewPayPalClient(fake)
	txnID := uuid.New()

	// precheck read
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	// debit
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(txnID.String()))
	mock.ExpectCommit()
	// provider batch id attached to the debit row
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := SettleBooking(context.Background(), settlementInput(hostWithEmail()))
	assert.NoError(t, err)
	assert.Equal(t, SettlementPaidOut, result.State)
	assert.Equal(t, int64(4300), result.NewBalance)
	if assert.NotNil(t, result.BatchID) {
		assert.Equal(t, "BATCH123", *result.BatchID)
	}
	if assert.Len(t, fake.payouts, 1) {
		item := fake.payouts[0].Items[0]
		assert.Equal(t, "host@example.com", item.Receiver)
		assert.Equal(t, RecipientTypeEmail, item.RecipientType)
		assert.Equal(t, "54.00", item.Amount.Value)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBookingPayoutFailureRefundsInFull(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{payoutErr: errors.New("DOWNSTREAM_SERVICE_ERROR")}
	lib.NewPayPalClient(fake)
	debitID := uuid.New()
	refundID := uuid.New()

	// precheck read
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	// debit
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(debitID.String()))
	mock.ExpectCommit()
	// compensating refund of the full grand total, fee included
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 4300))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(refundID.String()))
	mock.ExpectCommit()

	result, err := SettleBooking(context.Background(), settlementInput(hostWithEmail()))
	var payoutErr *types.PayoutFailedError
	assert.ErrorAs(t, err, &payoutErr)
	assert.Equal(t, SettlementRefunded, result.State)
	assert.Nil(t, result.BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBookingDegradedModeWithoutDestination(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{batchID: "UNUSED"}
	lib.NewPayPalClient(fake)
	txnID := uuid.New()

	// precheck read
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	// debit still happens; the payout is retained for manual settlement
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(txnID.String()))
	mock.ExpectCommit()

	result, err := SettleBooking(context.Background(), settlementInput(&models.User{ID: 2}))
	assert.NoError(t, err)
	assert.Equal(t, SettlementRetained, result.State)
	assert.Nil(t, result.BatchID)
	assert.Empty(t, fake.payouts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBookingRejectsMissingHost(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{batchID: "UNUSED"}
	lib.NewPayPalClient(fake)

	// no expectations: a vanished host row must be caught before any ledger read
	result, err := SettleBooking(context.Background(), settlementInput(nil))
	assert.Error(t, err)
	assert.Equal(t, SettlementNotStarted, result.State)
	assert.Empty(t, fake.payouts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBookingInsufficientBalanceWritesNothing(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{}
	lib.NewPayPalClient(fake)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 1000))

	result, err := SettleBooking(context.Background(), settlementInput(hostWithEmail()))
	var insufficient *types.InsufficientBalanceError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(4700), insufficient.Shortfall)
	assert.Equal(t, SettlementNotStarted, result.State)
	assert.Empty(t, fake.payouts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawFundsRequiresDestination(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	lib.NewPayPalClient(&fakeGateway{})

	_, err := WithdrawFunds(context.Background(), &models.User{ID: 1}, 2500, "wd-1")
	assert.ErrorIs(t, err, types.ErrPayoutDestinationMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawFundsSuccess(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{batchID: "BATCH999"}
	lib.NewPayPalClient(fake)
	accountID := "HOSTACCT123"
	user := &models.User{ID: 1, PaypalAccountID: &accountID}
	txnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 10000))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(txnID.String()))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := WithdrawFunds(context.Background(), user, 2500, "wd-2")
	assert.NoError(t, err)
	assert.Equal(t, SettlementPaidOut, result.State)
	assert.Equal(t, int64(7500), result.NewBalance)
	if assert.Len(t, fake.payouts, 1) {
		item := fake.payouts[0].Items[0]
		assert.Equal(t, RecipientTypePayPalID, item.RecipientType)
		assert.Equal(t, accountID, item.Receiver)
		assert.Equal(t, "25.00", item.Amount.Value)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
