package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ProjectsTask/EasySwapAgent/api/middleware"
	v1 "github.com/ProjectsTask/EasySwapAgent/api/v1"
	"github.com/ProjectsTask/EasySwapAgent/service/svc"
)

func NewRouter(svcCtx *svc.ServerCtx) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RecoverMiddleware())
	r.Use(middleware.RLog())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-CSRF-Token", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           1 * time.Hour,
	}))

	loadV1(r, svcCtx)
	return r
}

func loadV1(r *gin.Engine, svcCtx *svc.ServerCtx) {
	api := r.Group("/api/v1")

	api.GET("/collections", v1.CollectionsHandler(svcCtx))
	api.GET("/collections/:id/floor-history", v1.FloorHistoryHandler(svcCtx))
	api.GET("/floor-price-history", v1.FloorPriceHistoryHandler(svcCtx))
	api.GET("/price-data", v1.PriceDataHandler(svcCtx))

	api.GET("/bids", v1.ActiveBidsHandler(svcCtx))
	api.POST("/bids", v1.PlaceBidHandler(svcCtx))
	api.DELETE("/bids/:id", v1.CancelBidHandler(svcCtx))
}
