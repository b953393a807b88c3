package main

import (
	"log"
	"net/http"
	"wurst/src/common"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"
	"wurst/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func pollHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/polls", func(ctx *gin.Context) {
			var polls []models.Poll
			db := db.GetDb()
			if err := db.Order("created_at desc").Find(&polls).Error; err != nil {
				log.Printf("Error retrieving polls: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": polls, "count": len(polls)})
		}).
		GET("/polls/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var poll models.Poll
			db := db.GetDb()
			if err := db.Where(&models.Poll{ID: params.ID}).First(&poll).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": poll})
		}).
		POST("/polls", func(ctx *gin.Context) {
			var body types.CreatePollRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id, err := common.CreatePoll(body.Name, ctx.GetString("uid"))
			if err != nil {
				log.Printf("Error creating poll: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": id})
		}).
		PUT("/polls/:id/demand", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.SetQuantityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			quantity := common.NormalizeQuantity(body.Quantity)
			if err := common.SetPollDemand(params.ID, ctx.GetString("uid"), quantity); err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"quantity": quantity})
		}).
		GET("/polls/:id/demand", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			quantity, err := common.GetUserPollDemand(params.ID, ctx.GetString("uid"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"quantity": quantity})
		}).
		GET("/polls/:id/demand/sum", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			sum, err := common.GetPollDemandSum(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"sum": sum})
		})
	return g
}

func adminPollHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		PATCH("/polls/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdatePollRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Name == nil {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			res := db.Model(&models.Poll{}).Where("id = ?", params.ID).Update("name", *body.Name)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		DELETE("/polls/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where("poll_id = ?", params.ID).Delete(&models.PollDemand{}).Error; err != nil {
					return err
				}
				return tx.Unscoped().Where("id = ?", params.ID).Delete(&models.Poll{}).Error
			}); err != nil {
				log.Printf("Error deleting poll %s: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		GET("/polls/:id/demand/list", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rows, err := common.ListPollDemand(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
		}).
		POST("/polls/:id/convert", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.ConvertPollRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var poll models.Poll
			db := db.GetDb()
			if err := db.Where(&models.Poll{ID: params.ID}).First(&poll).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
				return
			}

			result, err := common.ConvertPollToProduct(params.ID, common.ConvertPollOverrides{
				Name:            body.Name,
				Category:        body.Category,
				SausagesPerPack: body.SausagesPerPack,
				TotalPacks:      body.TotalPacks,
				PricePerPack:    body.PricePerPack,
			}, ctx.GetString("uid"))
			if err != nil {
				log.Printf("Error converting poll %s: %s\n", params.ID, err.Error())
				if result != nil {
					ctx.JSON(types.ErrorStatus(err), gin.H{"error": err.Error(), "data": result})
					return
				}
				respondError(ctx, err)
				return
			}

			if !result.AlreadyConverted && poll.ImagePath != "" {
				if _, err := utils.CopyPollImageToProduct(ctx.Request.Context(), result.ProductID, poll.ImagePath); err != nil {
					log.Printf("Error copying poll image to product %s: %s\n", result.ProductID, err.Error())
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
