package main

import (
	"log"
	"net/http"
	"wurst/src/common"
	"wurst/src/types"
	"wurst/src/utils"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		PUT("/products/:id/reservation", func(ctx *gin.Context) {
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
			uid := ctx.GetString("uid")
			quantity := common.NormalizeQuantity(body.Quantity)
			if err := common.SetReservation(params.ID, uid, quantity); err != nil {
				log.Printf("Error setting reservation for %s/%s: %s\n", params.ID, uid, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"quantity": quantity})
		}).
		GET("/products/:id/reservation", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			quantity, err := utils.GetUserReservation(params.ID, ctx.GetString("uid"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"quantity": quantity})
		}).
		GET("/products/:id/reservation/live", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			uid := ctx.GetString("uid")
			streamTopic(ctx, common.ReservationsTopic(params.ID), func() (any, error) {
				quantity, err := utils.GetUserReservation(params.ID, uid)
				if err != nil {
					return nil, err
				}
				return gin.H{"quantity": quantity}, nil
			})
		}).
		GET("/products/:id/reservations/sum", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			sum, err := utils.GetReservationSum(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"sum": sum})
		}).
		GET("/products/:id/reservations/live", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			streamTopic(ctx, common.ReservationsTopic(params.ID), func() (any, error) {
				sum, err := utils.GetReservationSum(params.ID)
				if err != nil {
					return nil, err
				}
				return gin.H{"sum": sum}, nil
			})
		})
	return g
}

func adminReservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/products/:id/reservations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rows, err := utils.GetProductReservations(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			rows, err := utils.GetAllReservationsFlat()
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
		}).
		GET("/reservations/live", func(ctx *gin.Context) {
			streamTopic(ctx, common.AllReservationsTopic, func() (any, error) {
				rows, err := utils.GetAllReservationsFlat()
				if err != nil {
					return nil, err
				}
				return gin.H{"data": rows, "count": len(rows)}, nil
			})
		})
	return g
}
