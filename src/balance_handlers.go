package main

import (
	"errors"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"hbs/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func balanceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/balance", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			balance, err := utils.GetBalance(userID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"balance": balance}})
		}).
		GET("/transactions", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			gdb := db.GetDb()
			var transactions []models.Transaction
			err := gdb.
				Model(&models.Transaction{}).
				Where(&models.Transaction{UserID: userID}).
				Order("created_at DESC").
				Limit(50).
				Find(&transactions).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": transactions, "count": len(transactions)})
		}).
		POST("/balance/topup", func(ctx *gin.Context) {
			var body types.TopUpRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			orderID, approveURL, err := utils.CreateTopUpOrder(ctx.Request.Context(), userID, body.Amount)
			if err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{
				"order_id":    orderID,
				"approve_url": approveURL,
			}})
		}).
		POST("/balance/topup/capture", func(ctx *gin.Context) {
			var body types.CaptureTopUpRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			result, err := utils.CaptureTopUp(ctx.Request.Context(), userID, body.OrderID)
			if err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"balance":        result.NewBalance,
				"transaction_id": result.TransactionID,
			}})
		}).
		POST("/balance/withdraw", func(ctx *gin.Context) {
			var body types.WithdrawRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			gdb := db.GetDb()
			var user models.User
			if err := gdb.Where(&models.User{ID: userID}).First(&user).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			result, err := utils.WithdrawFunds(ctx.Request.Context(), &user, body.Amount, uuid.NewString())
			if err != nil {
				var insufficient *types.InsufficientBalanceError
				var payoutFailed *types.PayoutFailedError
				switch {
				case errors.As(err, &insufficient):
					ctx.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "shortfall": insufficient.Shortfall})
				case errors.Is(err, types.ErrPayoutDestinationMissing):
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				case errors.As(err, &payoutFailed):
					ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"state":    result.State,
				"batch_id": result.BatchID,
			}})
		})
	return g
}
