package main

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"wurst/src/common"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"
	"wurst/src/utils"

	"github.com/gin-gonic/gin"
)

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(types.ErrorStatus(err), gin.H{"error": err.Error()})
}

// streamTopic serves an SSE stream: one snapshot immediately, then a fresh
// snapshot per change notification on the topic. The subscription is dropped
// when the client disconnects.
func streamTopic(ctx *gin.Context, topic string, snapshot func() (any, error)) {
	ch, cancel := common.GetWatchRegistry().Subscribe(topic)
	defer cancel()

	emit := func() bool {
		data, err := snapshot()
		if err != nil {
			log.Printf("Error building snapshot for %s: %s\n", topic, err.Error())
			return false
		}
		ctx.SSEvent("update", data)
		return true
	}

	if !emit() {
		return
	}
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
			return emit()
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

func productHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/products", func(ctx *gin.Context) {
			var products []models.Product
			db := db.GetDb()
			if err := db.Order("created_at desc").Find(&products).Error; err != nil {
				log.Printf("Error retrieving products: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			for i := range products {
				products[i].FillRemaining()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": products, "count": len(products)})
		}).
		GET("/products/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var product models.Product
			db := db.GetDb()
			if err := db.Where(&models.Product{ID: params.ID}).First(&product).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			product.FillRemaining()
			ctx.JSON(http.StatusOK, gin.H{"data": product})
		}).
		GET("/products/:id/live", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			streamTopic(ctx, common.ProductTopic(params.ID), func() (any, error) {
				var product models.Product
				if err := db.GetDb().Where(&models.Product{ID: params.ID}).First(&product).Error; err != nil {
					return nil, err
				}
				product.FillRemaining()
				return product, nil
			})
		})
	return g
}

func adminProductHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/products", func(ctx *gin.Context) {
			var body types.CreateProductRequestBody
			if err := ctx.ShouldBind(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var image *utils.ImageUpload
			if file, err := ctx.FormFile("image"); err == nil && file != nil {
				f, err := file.Open()
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				defer f.Close()
				image = &utils.ImageUpload{
					Reader:      f,
					Filename:    file.Filename,
					ContentType: file.Header.Get("Content-Type"),
				}
			}

			id, err := utils.CreateNewProduct(ctx.Request.Context(), &body, ctx.GetString("uid"), image)
			if err != nil {
				log.Printf("Error creating product: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": id})
		}).
		PATCH("/products/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateProductRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			patch := map[string]any{}
			if body.Name != nil {
				patch["name"] = *body.Name
			}
			if body.Category != nil {
				patch["category"] = *body.Category
			}
			if body.SausagesPerPack != nil {
				patch["sausages_per_pack"] = *body.SausagesPerPack
			}
			if body.TotalPacks != nil {
				patch["total_packs"] = *body.TotalPacks
			}
			if body.PricePerPack != nil {
				patch["price_per_pack"] = *body.PricePerPack
			}
			if body.Unit != nil {
				patch["unit"] = *body.Unit
			}
			if len(patch) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}

			db := db.GetDb()
			res := db.Model(&models.Product{}).Where("id = ?", params.ID).Updates(patch)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			common.PublishProductEvent(params.ID)
			ctx.Status(http.StatusOK)
		}).
		PATCH("/products/:id/active", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			activeQuery := ctx.DefaultQuery("active", "true")
			active, err := strconv.ParseBool(activeQuery)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			res := db.Model(&models.Product{}).Where("id = ?", params.ID).Update("active", active)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			common.PublishProductEvent(params.ID)
			ctx.Status(http.StatusOK)
		}).
		PUT("/products/:id/image", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			file, err := ctx.FormFile("image")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "image file missing"})
				return
			}
			f, err := file.Open()
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			defer f.Close()

			url, err := utils.UpdateProductImage(ctx.Request.Context(), params.ID, &utils.ImageUpload{
				Reader:      f,
				Filename:    file.Filename,
				ContentType: file.Header.Get("Content-Type"),
			})
			if err != nil {
				log.Printf("Error updating product image: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"image_url": url})
		}).
		DELETE("/products/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.DeleteProduct(ctx.Request.Context(), params.ID); err != nil {
				log.Printf("Error deleting product: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/products/:id/recompute", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			totals, err := common.RecomputeProductAggregates(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": totals})
		}).
		POST("/products/recompute", func(ctx *gin.Context) {
			done, total, err := common.RecomputeAllProductAggregates(func(done, total int) {
				log.Printf("Recompute progress: %d/%d\n", done, total)
			})
			if err != nil {
				// partial progress still reported
				ctx.JSON(types.ErrorStatus(err), gin.H{"error": err.Error(), "done": done, "total": total})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"done": done, "total": total})
		})
	return g
}
