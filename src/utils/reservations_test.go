package utils

import (
	"errors"
	"hbs/src/db"
	"hbs/src/models"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRecordPaymentSummaryRetriesTransientFailure(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	txnID := uuid.New()
	batchID := "BATCH123"
	settlement := &SettlementResult{
		State:         SettlementPaidOut,
		TransactionID: &LedgerResult{TransactionID: txnID},
		BatchID:       &batchID,
		Destination:   &PayoutDestination{Receiver: "host@example.com", RecipientType: RecipientTypeEmail},
	}

	// first write drops, second lands
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations"`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reservation := &models.Reservation{ID: 9}
	err := recordPaymentSummary(reservation, settlement)
	assert.NoError(t, err)
	if assert.NotNil(t, reservation.TransactionID) {
		assert.Equal(t, txnID, *reservation.TransactionID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPaymentSummaryGivesUpAfterRetries(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)
	settlement := &SettlementResult{State: SettlementPaidOut}

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "reservations"`).
			WillReturnError(errors.New("connection reset by peer"))
		mock.ExpectRollback()
	}

	err := recordPaymentSummary(&models.Reservation{ID: 9}, settlement)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireReservationLeavesPaidRowsAlone(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)

	// confirmed or transaction-bearing rows fall outside the predicate
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, ExpireReservation(9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpiredHolds(t *testing.T) {
	gormDB, mock := newMockDB()
	db.NewDB(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	assert.NoError(t, SweepExpiredHolds())
	assert.NoError(t, mock.ExpectationsWereMet())
}
