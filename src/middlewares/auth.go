package middlewares

import (
	"log"
	"net/http"
	"os"
	"strings"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		ctx.AbortWithError(http.StatusUnauthorized, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	db := db.GetDb()
	var user models.User
	err = db.
		Model(&models.User{}).
		Where(&models.User{UID: claims.Subject}).
		First(&user).
		Error
	if err != nil || user.ID < 1 {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("uid", user.UID)
	ctx.Set("email", user.Email)
	ctx.Set("name", user.DisplayName)
	ctx.Set("role", user.Role)
	ctx.Set("status", user.Status)
}

// AdminOnly gates product administration, pickups, recompute and conversion.
func AdminOnly(ctx *gin.Context) {
	if ctx.GetString("role") != types.ROLE_ADMIN {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": types.ErrPermissionDenied.Error()})
		return
	}
}

// ApprovedOnly gates push broadcasting.
func ApprovedOnly(ctx *gin.Context) {
	if ctx.GetString("status") != types.USER_APPROVED {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": types.ErrPermissionDenied.Error()})
		return
	}
}
