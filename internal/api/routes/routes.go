// server/internal/api/routes/routes.go
package routes

import (
	"procureflow-api-server/config"
	"procureflow-api-server/internal/api/handlers"
	"procureflow-api-server/internal/api/middleware"
	"procureflow-api-server/internal/s3"
	"procureflow-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Khởi tạo các handlers
	poHandler := &handlers.POHandler{DB: db}
	grnHandler := &handlers.GRNHandler{DB: db, Hub: wsHub}
	inspectionHandler := &handlers.InspectionHandler{DB: db, Hub: wsHub}
	vendorHandler := &handlers.VendorHandler{DB: db}
	partHandler := &handlers.PartHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db}
	uploadHandler := &handlers.UploadHandler{DB: db, Uploader: s3Uploader}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===

		// Nhóm API quản trị, yêu cầu vai trò "superadmin"
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize("superadmin"))
		{
			// User management
			admin.POST("/users", userHandler.CreateUser)
			admin.GET("/users", userHandler.GetAllUsers)
			admin.DELETE("/users/:email", userHandler.DeactivateUser)
		}

		// Nhóm các API nghiệp vụ chính, yêu cầu các vai trò cụ thể
		businessRoutes := apiV1.Group("/")
		businessRoutes.Use(middleware.Authenticate())
		businessRoutes.Use(middleware.Authorize("purchase", "stores", "qc", "superadmin"))
		{
			// Vendor management: bộ phận mua hàng quản lý, các vai trò khác chỉ đọc
			vendors := businessRoutes.Group("/vendors")
			{
				vendors.GET("/", vendorHandler.GetAllVendors)
				vendors.GET("/:id", vendorHandler.GetVendorByID)

				vendorWriteRoutes := vendors.Group("/")
				vendorWriteRoutes.Use(middleware.Authorize("purchase", "superadmin"))
				{
					vendorWriteRoutes.POST("/", vendorHandler.CreateVendor)
					vendorWriteRoutes.PUT("/:id", vendorHandler.UpdateVendor)
				}
			}

			// Part catalog
			parts := businessRoutes.Group("/parts")
			{
				parts.GET("/", partHandler.GetAllParts)
				parts.GET("/:id", partHandler.GetPartByID)

				partWriteRoutes := parts.Group("/")
				partWriteRoutes.Use(middleware.Authorize("purchase", "superadmin"))
				{
					partWriteRoutes.POST("/", partHandler.CreatePart)
					partWriteRoutes.PUT("/:id", partHandler.UpdatePart)
				}
			}

			// Purchase order management: chỉ bộ phận mua hàng được ghi
			pos := businessRoutes.Group("/purchase-orders")
			{
				pos.GET("/", poHandler.GetAllPOs)
				pos.GET("/:id", poHandler.GetPOByID)

				poWriteRoutes := pos.Group("/")
				poWriteRoutes.Use(middleware.Authorize("purchase", "superadmin"))
				{
					poWriteRoutes.POST("/", poHandler.CreatePO)
					poWriteRoutes.PUT("/:id", poHandler.UpdatePO)
					poWriteRoutes.POST("/:id/submit", poHandler.SubmitPO)
					poWriteRoutes.POST("/:id/approve", poHandler.ApprovePO)
					poWriteRoutes.POST("/:id/cancel", poHandler.CancelPO)
				}
			}

			// GRN management: bộ phận kho tạo và sửa phiếu nhập
			grns := businessRoutes.Group("/grns")
			{
				grns.GET("/", grnHandler.GetAllGRNs)
				grns.GET("/:id", grnHandler.GetGRNByID)
				grns.GET("/:id/inspection", inspectionHandler.GetInspectionByGRN)

				grnWriteRoutes := grns.Group("/")
				grnWriteRoutes.Use(middleware.Authorize("stores", "superadmin"))
				{
					grnWriteRoutes.POST("/", grnHandler.CreateGRN)
					grnWriteRoutes.PUT("/:id", grnHandler.UpdateGRN)
					grnWriteRoutes.DELETE("/:id", grnHandler.DeleteGRN)
					grnWriteRoutes.POST("/:id/challan-photo", uploadHandler.UploadChallanPhoto)
				}
			}

			// Inspection management: bộ phận QC ghi kết quả kiểm tra
			inspections := businessRoutes.Group("/inspections")
			{
				inspections.GET("/", inspectionHandler.GetAllInspections)
				inspections.GET("/:id", inspectionHandler.GetInspectionByID)

				inspectionWriteRoutes := inspections.Group("/")
				inspectionWriteRoutes.Use(middleware.Authorize("qc", "superadmin"))
				{
					inspectionWriteRoutes.POST("/", inspectionHandler.CreateInspection)
					inspectionWriteRoutes.PUT("/:id", inspectionHandler.UpdateInspection)
					inspectionWriteRoutes.POST("/:id/report-photo", uploadHandler.UploadInspectionReport)
				}
			}
		}
	}

	return router
}
