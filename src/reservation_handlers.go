package main

import (
	"errors"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"hbs/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// reservationErrorStatus maps booking failures to response codes. Payment
// shortfalls and calendar conflicts get their own codes so clients can react
// without parsing messages.
func reservationErrorStatus(err error) int {
	var insufficient *types.InsufficientBalanceError
	var payoutFailed *types.PayoutFailedError
	switch {
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired
	case errors.Is(err, types.ErrListingUnavailable):
		return http.StatusConflict
	case errors.As(err, &payoutFailed):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			guestID := ctx.GetUint("id")
			reservation, err := utils.CreateReservation(ctx, &body, guestID)
			if err != nil {
				ctx.JSON(reservationErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			var (
				reservations []models.Reservation
				err          error
			)
			if ctx.Query("host") == "true" {
				reservations, err = utils.GetHostReservations(userID)
			} else {
				reservations, err = utils.GetOwnReservations(userID)
			}
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations, "count": len(reservations)})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userID := ctx.GetUint("id")
			gdb := db.GetDb()
			var reservation models.Reservation
			if err := gdb.
				Model(&models.Reservation{}).
				Where("id = ? AND (guest_id = ? OR host_id = ?)", params.ID, userID, userID).
				Preload("Listing").
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		PUT("/reservations/:id/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			hostID := ctx.GetUint("id")
			if err := utils.ConfirmReservation(hostID, params.ID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/reservations/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userID := ctx.GetUint("id")
			asHost := ctx.Query("host") == "true"
			if err := utils.CancelReservation(userID, params.ID, asHost); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
