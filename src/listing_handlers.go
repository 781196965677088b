package main

import (
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"hbs/src/utils"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func listingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/listings", func(ctx *gin.Context) {
			db := db.GetDb()
			var listings []models.Listing
			err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{Status: types.LISTING_OPEN}).
				Order("created_at desc").
				Limit(100).
				Find(&listings).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		}).
		GET("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{ID: params.ID}).
				Preload("Host").
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listing})
		}).
		GET("/listings/:id/quote", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query struct {
				CheckIn  string `form:"check_in" binding:"required"`
				CheckOut string `form:"check_out" binding:"required"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			checkIn, err := utils.ParseStayDate(query.CheckIn)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			checkOut, err := utils.ParseStayDate(query.CheckOut)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Where(&models.Listing{ID: params.ID, Status: types.LISTING_OPEN}).
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
				return
			}
			pricing, err := utils.ComputePricing(utils.PricingInput{
				NightlyPrice:    listing.NightlyPrice,
				CheckIn:         checkIn,
				CheckOut:        checkOut,
				DiscountPercent: utils.EffectiveDiscount(&listing, time.Now()),
				PromoCode:       listing.PromoCode,
				ServiceFee:      config.ServiceFee(),
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": pricing})
		}).
		POST("/listings", func(ctx *gin.Context) {
			var body types.CreateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			hostId := ctx.GetUint("id")
			listing := models.Listing{
				HostID:          hostId,
				Title:           body.Title,
				Slug:            slug.Make(body.Title),
				Location:        body.Location,
				NightlyPrice:    body.NightlyPrice,
				DiscountPercent: body.DiscountPercent,
				PromoCode:       body.PromoCode,
				Status:          types.LISTING_DRAFT,
			}
			if body.Publish {
				listing.Status = types.LISTING_OPEN
			}
			if body.DiscountStart != nil {
				start, err := utils.ParseStayDate(*body.DiscountStart)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				listing.DiscountStart = &start
			}
			if body.DiscountEnd != nil {
				end, err := utils.ParseStayDate(*body.DiscountEnd)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				listing.DiscountEnd = &end
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&listing).Error
			}); err != nil {
				log.Printf("Error creating listing: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": listing})
		}).
		PUT("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			hostId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var listing models.Listing
				if err := tx.
					Where(&models.Listing{ID: params.ID, HostID: hostId}).
					First(&listing).
					Error; err != nil {
					return err
				}
				updates := models.Listing{}
				if body.Title != nil {
					updates.Title = *body.Title
					updates.Slug = slug.Make(*body.Title)
				}
				if body.Location != nil {
					updates.Location = *body.Location
				}
				if body.NightlyPrice != nil {
					if *body.NightlyPrice < 0 {
						return errors.New("nightly price must not be negative")
					}
					updates.NightlyPrice = *body.NightlyPrice
				}
				if body.DiscountPercent != nil {
					if *body.DiscountPercent < 0 || *body.DiscountPercent > 100 {
						return types.ErrInvalidDiscount
					}
					updates.DiscountPercent = *body.DiscountPercent
				}
				if body.DiscountStart != nil {
					start, err := utils.ParseStayDate(*body.DiscountStart)
					if err != nil {
						return err
					}
					updates.DiscountStart = &start
				}
				if body.DiscountEnd != nil {
					end, err := utils.ParseStayDate(*body.DiscountEnd)
					if err != nil {
						return err
					}
					updates.DiscountEnd = &end
				}
				if body.PromoCode != nil {
					updates.PromoCode = body.PromoCode
				}
				return tx.
					Model(&models.Listing{}).
					Where(&models.Listing{ID: params.ID}).
					Updates(&updates).
					Error
			})
			if err != nil {
				log.Printf("Could not update listing %d: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/listings/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			hostId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.Listing{}).
					Where(&models.Listing{ID: params.ID, HostID: hostId, Status: types.LISTING_DRAFT}).
					Update("status", types.LISTING_OPEN)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return errors.New("no draft listing to publish")
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
