package main

import (
	"log"
	"net/http"
	"wurst/src/common"
	"wurst/src/types"
	"wurst/src/utils"

	"github.com/gin-gonic/gin"
)

type pickupRequestParams struct {
	ID       string `uri:"id" binding:"required"`
	PickupID string `uri:"pickupId" binding:"required"`
}

type markPickupRequestBody struct {
	UID string `json:"uid" binding:"required"`
}

func pickupHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/products/:id/pickups", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body markPickupRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			pickupID, err := common.MarkReservationPickedUp(params.ID, body.UID, ctx.GetString("uid"))
			if err != nil {
				log.Printf("Error marking pickup for %s/%s: %s\n", params.ID, body.UID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": pickupID})
		}).
		POST("/products/:id/pickups/:pickupId/undo", func(ctx *gin.Context) {
			var params pickupRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.UndoPickupToReservation(params.ID, params.PickupID, ctx.GetString("uid")); err != nil {
				log.Printf("Error undoing pickup %s: %s\n", params.PickupID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		GET("/products/:id/pickups", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rows, err := utils.GetProductPickups(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
		}).
		GET("/products/:id/pickups/live", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			streamTopic(ctx, common.PickupsTopic(params.ID), func() (any, error) {
				rows, err := utils.GetProductPickups(params.ID)
				if err != nil {
					return nil, err
				}
				return gin.H{"data": rows, "count": len(rows)}, nil
			})
		})
	return g
}
