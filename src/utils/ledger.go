package utils

import (
	"context"
	"errors"
	"fmt"
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerContext carries the bookkeeping attached to a single balance mutation.
type LedgerContext struct {
	Type             types.TransactionType
	ReferenceID      string
	Currency         string
	ProviderBatchID  *string
	RefTransactionID *uuid.UUID
	Metadata         types.JSONB
}

type LedgerResult struct {
	NewBalance    int64
	TransactionID uuid.UUID
}

func balanceCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d:balance", userID)
}

func invalidateBalanceCache(userID uint) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), balanceCacheKey(userID)).Err(); err != nil {
		log.Printf("Error invalidating balance cache for user %d: %s\n", userID, err.Error())
	}
}

// GetBalance reads the user's ledger balance, trying the cache first. The
// cache is dropped on every mutation, so a hit is never stale. The column
// defaults to zero, so a user who never touched the ledger reads as zero
// without a write.
func GetBalance(userID uint) (int64, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		if cached, err := rd.Get(context.Background(), balanceCacheKey(userID)).Int64(); err == nil {
			return cached, nil
		}
	}
	var user models.User
	db := db.GetDb()
	if err := db.
		Model(&models.User{}).
		Where(&models.User{ID: userID}).
		First(&user).
		Error; err != nil {
		return 0, err
	}
	if rd != nil {
		if err := rd.Set(context.Background(), balanceCacheKey(userID), user.Balance, 5*time.Minute).Err(); err != nil {
			log.Printf("Error caching balance for user %d: %s\n", userID, err.Error())
		}
	}
	return user.Balance, nil
}

// Debit decreases the balance by amount and appends the paired Transaction
// row, all inside one DB transaction with the user row locked. A debit that
// would overdraw fails with InsufficientBalanceError and writes nothing.
func Debit(userID uint, amount int64, lctx LedgerContext) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, errors.New("debit amount must be positive")
	}
	var result LedgerResult
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.User{ID: userID}).
			First(&user).
			Error; err != nil {
			return err
		}
		if amount > user.Balance {
			return &types.InsufficientBalanceError{Shortfall: amount - user.Balance}
		}
		newBalance := user.Balance - amount
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", newBalance).
			Error; err != nil {
			return err
		}
		txn := models.Transaction{
			UserID:           userID,
			Type:             lctx.Type,
			Amount:           amount,
			BalanceBefore:    user.Balance,
			BalanceAfter:     newBalance,
			Currency:         lctx.Currency,
			Status:           types.TRANSACTION_COMPLETED,
			ReferenceID:      lctx.ReferenceID,
			ProviderBatchID:  lctx.ProviderBatchID,
			RefTransactionID: lctx.RefTransactionID,
			Metadata:         lctx.Metadata,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		result = LedgerResult{NewBalance: newBalance, TransactionID: txn.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateBalanceCache(userID)
	return &result, nil
}

// Credit increases the balance by amount; used for top-ups and for rollback
// compensation. Same locking and pairing discipline as Debit.
func Credit(userID uint, amount int64, lctx LedgerContext) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, errors.New("credit amount must be positive")
	}
	var result LedgerResult
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.User{ID: userID}).
			First(&user).
			Error; err != nil {
			return err
		}
		newBalance := user.Balance + amount
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", newBalance).
			Error; err != nil {
			return err
		}
		txn := models.Transaction{
			UserID:           userID,
			Type:             lctx.Type,
			Amount:           amount,
			BalanceBefore:    user.Balance,
			BalanceAfter:     newBalance,
			Currency:         lctx.Currency,
			Status:           types.TRANSACTION_COMPLETED,
			ReferenceID:      lctx.ReferenceID,
			ProviderBatchID:  lctx.ProviderBatchID,
			RefTransactionID: lctx.RefTransactionID,
			Metadata:         lctx.Metadata,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		result = LedgerResult{NewBalance: newBalance, TransactionID: txn.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateBalanceCache(userID)
	return &result, nil
}

// Refund is a Credit tagged as the reversal of a specific prior debit.
func Refund(userID uint, amount int64, originalTxn *uuid.UUID, referenceID string) (*LedgerResult, error) {
	lctx := LedgerContext{
		Type:             types.TRANSACTION_DEPOSIT,
		ReferenceID:      referenceID,
		RefTransactionID: originalTxn,
		Metadata:         types.JSONB{"reversal": true},
	}
	if originalTxn != nil {
		lctx.Metadata["reversal_of"] = originalTxn.String()
	}
	return Credit(userID, amount, lctx)
}
