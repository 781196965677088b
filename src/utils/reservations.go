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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reservation holds that were never paid expire after this window.
const reservationHoldWindow = 1 * time.Hour

// CreateReservation runs the full booking flow: availability check and insert
// in one DB transaction, pricing snapshot frozen on the row, and, for
// balance-paid bookings, the settlement protocol. Validation failures happen
// before anything is persisted.
func CreateReservation(ctx *gin.Context, params *types.CreateReservationRequestBody, guestID uint) (*models.Reservation, error) {
	checkIn, err := ParseStayDate(params.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := ParseStayDate(params.CheckOut)
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, types.ErrInvalidDateRange
	}

	gdb := db.GetDb()
	var listing models.Listing
	if err := gdb.
		Model(&models.Listing{}).
		Where(&models.Listing{ID: params.ListingID, Status: types.LISTING_OPEN}).
		Preload("Host").
		First(&listing).
		Error; err != nil {
		return nil, errors.New("listing not found")
	}
	if listing.HostID == guestID {
		return nil, errors.New("hosts cannot book their own listing")
	}

	promo := params.PromoCode
	if promo == nil {
		promo = listing.PromoCode
	}
	pricing, err := ComputePricing(PricingInput{
		NightlyPrice:    listing.NightlyPrice,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		DiscountPercent: EffectiveDiscount(&listing, time.Now()),
		PromoCode:       promo,
		ServiceFee:      config.ServiceFee(),
	})
	if err != nil {
		return nil, err
	}

	payWithBalance := types.PaymentMethod(params.PaymentMethod) == types.PAYMENT_BALANCE
	if payWithBalance {
		// Optimistic check before touching the store; the authoritative check
		// runs again under lock inside Debit.
		balance, err := GetBalance(guestID)
		if err != nil {
			return nil, err
		}
		if pricing.GrandTotal > balance {
			return nil, &types.InsufficientBalanceError{Shortfall: pricing.GrandTotal - balance}
		}
	}

	requestID := uuid.New()
	reservation := models.Reservation{
		GuestID:         guestID,
		HostID:          listing.HostID,
		ListingID:       listing.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		NightlyPrice:    pricing.NightlyPrice,
		Nights:          pricing.Nights,
		BaseTotal:       pricing.BaseTotal,
		DiscountPercent: pricing.DiscountPercent,
		DiscountAmount:  pricing.DiscountAmount,
		Subtotal:        pricing.Subtotal,
		ServiceFee:      pricing.ServiceFee,
		GrandTotal:      pricing.GrandTotal,
		PromoCode:       pricing.PromoCode,
		Status:          types.RESERVATION_PENDING,
		PaymentMethod:   types.PaymentMethod(params.PaymentMethod),
	}
	err = gdb.Transaction(func(tx *gorm.DB) error {
		// The listing row lock serializes racing bookings so the overlap check
		// and the insert act as one unit.
		var locked models.Listing
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Listing{ID: listing.ID}).
			First(&locked).
			Error; err != nil {
			return err
		}
		var count int64
		if err := tx.
			Model(&models.Reservation{}).
			Where("listing_id = ?", listing.ID).
			Where("status IN (?)", []types.ReservationStatus{
				types.RESERVATION_PENDING,
				types.RESERVATION_CONFIRMED,
			}).
			Where("check_in < ? AND check_out > ?", checkOut, checkIn).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return types.ErrListingUnavailable
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateReservation failed: %s\n", err.Error())
		return nil, err
	}

	if payWithBalance {
		settlement, err := SettleBooking(ctx.Request.Context(), SettlementInput{
			GuestID:     guestID,
			Host:        listing.Host,
			Pricing:     pricing,
			Currency:    config.Currency(),
			ReferenceID: requestID.String(),
			Note:        fmt.Sprintf("Booking payout for %s", listing.Title),
		})
		if err != nil {
			if merr := markReservationCancelled(reservation.ID); merr != nil {
				log.Printf("Could not cancel reservation %d after failed settlement: %s\n", reservation.ID, merr.Error())
			}
			return nil, err
		}
		if err := recordPaymentSummary(&reservation, settlement); err != nil {
			// A paid row left pending with no transaction id would be swept as an
			// unpaid hold later, so reverse the payment instead of confirming.
			log.Printf("Could not record payment summary for reservation %d, reversing payment: %s\n", reservation.ID, err.Error())
			if settlement.TransactionID != nil {
				if _, rerr := Refund(guestID, pricing.GrandTotal, &settlement.TransactionID.TransactionID, requestID.String()); rerr != nil {
					log.Printf("Refund for reservation %d failed, ledger needs manual reconciliation: %s\n", reservation.ID, rerr.Error())
				}
			}
			if merr := markReservationCancelled(reservation.ID); merr != nil {
				log.Printf("Could not cancel reservation %d after failed payment summary: %s\n", reservation.ID, merr.Error())
			}
			return nil, fmt.Errorf("could not finalize reservation payment: %w", err)
		}
		reservation.Status = types.RESERVATION_CONFIRMED
	} else {
		ScheduleReservationExpiry(reservation.ID, time.Now().Add(reservationHoldWindow))
	}

	if rd := lib.GetRedisClient(); rd != nil {
		if settlementTxn := reservation.TransactionID; settlementTxn != nil {
			if _, err := rd.SetEx(context.Background(), requestID.String(), settlementTxn.String(), 10*time.Minute).Result(); err != nil {
				log.Printf("Error caching value [%s]: %s\n", requestID.String(), err.Error())
			}
		}
	}

	notifyReservationParties(&reservation, "reservation.created",
		fmt.Sprintf("Your reservation for %s (%s to %s) was created", listing.Title, params.CheckIn, params.CheckOut),
		fmt.Sprintf("New reservation for %s (%s to %s)", listing.Title, params.CheckIn, params.CheckOut),
	)
	return &reservation, nil
}

func recordPaymentSummary(r *models.Reservation, settlement *SettlementResult) error {
	updates := models.Reservation{
		Status: types.RESERVATION_CONFIRMED,
	}
	if settlement.TransactionID != nil {
		id := settlement.TransactionID.TransactionID
		updates.TransactionID = &id
		r.TransactionID = &id
	}
	if settlement.BatchID != nil {
		updates.ProviderBatchID = settlement.BatchID
		r.ProviderBatchID = settlement.BatchID
	}
	if settlement.Destination != nil {
		masked := MaskReference(settlement.Destination.Receiver)
		updates.PaymentReference = &masked
		r.PaymentReference = &masked
	}
	gdb := db.GetDb()
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = gdb.Transaction(func(tx *gorm.DB) error {
			return tx.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: r.ID}).
				Updates(&updates).
				Error
		})
		if err == nil {
			return nil
		}
		log.Printf("Attempt %d to record payment summary for reservation %d failed: %s\n", attempt, r.ID, err.Error())
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return err
}

func markReservationCancelled(id uint) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Update("status", types.RESERVATION_CANCELLED).
			Error
	})
}

// ScheduleReservationExpiry enqueues a one-time job that cancels the hold if
// it is still pending and unpaid when the window closes.
func ScheduleReservationExpiry(id uint, runsAt time.Time) {
	_, err := lib.CreateOneTimeCronJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(runsAt)),
		gocron.NewTask(func(rid uint) {
			if err := ExpireReservation(rid); err != nil {
				log.Printf("Error expiring reservation %d: %s\n", rid, err.Error())
			}
		}, id),
	)
	if err != nil {
		log.Printf("Error creating expiry job for reservation %d: %s\n", id, err.Error())
	}
}

// ExpireReservation cancels a pending hold that was never paid. Idempotent:
// a reservation that was confirmed or cancelled in the meantime is untouched.
func ExpireReservation(id uint) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ? AND transaction_id IS NULL", id, types.RESERVATION_PENDING).
			Update("status", types.RESERVATION_CANCELLED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("Reservation %d expired after unpaid hold window\n", id)
		}
		return nil
	})
}

// SweepExpiredHolds cancels unpaid pending holds whose window lapsed while no
// expiry job was around to fire, e.g. after a restart.
func SweepExpiredHolds() error {
	cutoff := time.Now().Add(-reservationHoldWindow)
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("status = ? AND transaction_id IS NULL AND created_at < ?", types.RESERVATION_PENDING, cutoff).
			Update("status", types.RESERVATION_CANCELLED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("Swept %d expired reservation holds\n", res.RowsAffected)
		}
		return nil
	})
}

// ConfirmReservation is the host action for pay-later bookings.
func ConfirmReservation(hostID, id uint) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id, HostID: hostID, Status: types.RESERVATION_PENDING}).
			Update("status", types.RESERVATION_CONFIRMED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("no pending reservation to confirm")
		}
		return nil
	})
}

// CancelReservation cancels on behalf of the guest or the host. Cancelling a
// balance-paid reservation refunds the guest in full.
func CancelReservation(userID, id uint, asHost bool) error {
	var reservation models.Reservation
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		conds := models.Reservation{ID: id}
		if asHost {
			conds.HostID = userID
		} else {
			conds.GuestID = userID
		}
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&conds).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.Status == types.RESERVATION_CANCELLED {
			return errors.New("reservation is already cancelled")
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Update("status", types.RESERVATION_CANCELLED).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if reservation.TransactionID != nil && reservation.GrandTotal > 0 {
		if _, err := Refund(reservation.GuestID, reservation.GrandTotal, reservation.TransactionID, fmt.Sprintf("cancel_reservation_%d", id)); err != nil {
			log.Printf("Refund on cancel of reservation %d failed: %s\n", id, err.Error())
			return err
		}
	}
	notifyReservationParties(&reservation, "reservation.cancelled",
		fmt.Sprintf("Your reservation %d was cancelled", id),
		fmt.Sprintf("Reservation %d was cancelled", id),
	)
	return nil
}

func GetOwnReservations(userID uint) ([]models.Reservation, error) {
	gdb := db.GetDb()
	var reservations []models.Reservation
	err := gdb.
		Model(&models.Reservation{}).
		Where(&models.Reservation{GuestID: userID}).
		Preload("Listing").
		Order("created_at DESC").
		Limit(20).
		Find(&reservations).
		Error
	return reservations, err
}

func GetHostReservations(hostID uint) ([]models.Reservation, error) {
	gdb := db.GetDb()
	var reservations []models.Reservation
	err := gdb.
		Model(&models.Reservation{}).
		Where(&models.Reservation{HostID: hostID}).
		Preload("Listing").
		Preload("Guest").
		Order("created_at DESC").
		Limit(50).
		Find(&reservations).
		Error
	return reservations, err
}
