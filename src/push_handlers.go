package main

import (
	"log"
	"net/http"
	"wurst/src/common"
	"wurst/src/types"

	"github.com/gin-gonic/gin"
)

func pushTokenHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/push/token", func(ctx *gin.Context) {
			var body types.SaveTokenRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.SaveFCMToken(ctx.GetString("uid"), body.Token); err != nil {
				log.Printf("Error saving push token: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}

func pushSendHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/push/broadcast", func(ctx *gin.Context) {
			var body types.PushBroadcastRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			report, err := common.SendPushToAllUsers(ctx.Request.Context(), body.Title, body.Body, body.URL)
			if err != nil {
				log.Printf("Error broadcasting push: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": report})
		}).
		POST("/push/send", func(ctx *gin.Context) {
			var body types.PushToUsersRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			report, err := common.SendPushToUsers(ctx.Request.Context(), body.UIDs, body.Title, body.Body, body.URL)
			if err != nil {
				log.Printf("Error sending push: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": report})
		})
	return g
}
