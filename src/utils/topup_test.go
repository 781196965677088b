package utils

import (
	"context"
	"hbs/src/db"
	"hbs/src/lib"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
)

func TestCreateTopUpOrder(t *testing.T) {
	fake := &fakeGateway{
		order: &paypal.Order{
			ID: "ORDER1",
			Links: []paypal.Link{
				{Href: "https://api.sandbox.paypal.com/self", Rel: "self"},
				{Href: "https://www.sandbox.paypal.com/checkoutnow?token=ORDER1", Rel: "approve"},
			},
		},
	}
	lib.NewPayPalClient(fake)

	orderID, approveURL, err := CreateTopUpOrder(context.Background(), 1, 2500)
	assert.NoError(t, err)
	assert.Equal(t, "ORDER1", orderID)
	assert.Contains(t, approveURL, "checkoutnow")
}

func TestCaptureTopUpCreditsLedger(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{
		capture: &paypal.CaptureOrderResponse{
			ID:     "ORDER1",
			Status: "COMPLETED",
			PurchaseUnits: []paypal.CapturedPurchaseUnit{
				{
					Payments: &paypal.CapturedPayments{
						Captures: []paypal.CaptureAmount{
							{Amount: &paypal.PurchaseUnitAmount{Currency: "USD", Value: "25.00"}},
						},
					},
				},
			},
		},
	}
	lib.NewPayPalClient(fake)
	txnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow(1, 1000))
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(txnID.String()))
	mock.ExpectCommit()

	result, err := CaptureTopUp(context.Background(), 1, "ORDER1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3500), result.NewBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptureTopUpRejectsIncompleteCapture(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	fake := &fakeGateway{
		capture: &paypal.CaptureOrderResponse{ID: "ORDER2", Status: "PENDING"},
	}
	lib.NewPayPalClient(fake)

	_, err := CaptureTopUp(context.Background(), 1, "ORDER2")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
