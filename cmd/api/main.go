// server/cmd/api/main.go
package main

import (
	"log"

	"procureflow-api-server/config"
	"procureflow-api-server/internal/api/routes"
	"procureflow-api-server/internal/auth"
	"procureflow-api-server/internal/database"
	"procureflow-api-server/internal/s3"
	"procureflow-api-server/internal/socket"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load file .env nếu có (môi trường dev), production dùng biến môi trường thật
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// 2. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	auth.SetSecret(cfg.JWT.Secret)

	// 3. Kết nối MongoDB
	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	// 4. Tạo các unique index cho số chứng từ
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// 5. Seed tài khoản superadmin nếu chưa có
	if err := database.SeedSuperAdmin(db); err != nil {
		log.Fatalf("Failed to seed superadmin: %v", err)
	}

	// 6. Khởi tạo S3 uploader cho ảnh challan và biên bản kiểm tra
	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}

	// 7. Khởi tạo WebSocket hub cho thông báo thời gian thực
	wsHub := socket.NewHub()

	// 8. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(cfg, db, s3Uploader, wsHub)

	// 9. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
