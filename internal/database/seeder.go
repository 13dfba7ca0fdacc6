// server/internal/database/seeder.go
package database

import (
	"context"
	"log"
	"time"

	"procureflow-api-server/internal/auth"
	"procureflow-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func SeedSuperAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	superAdminEmail := "superadmin@example.com"

	// Kiểm tra xem superadmin đã tồn tại chưa
	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": superAdminEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Super admin already exists. Seeding skipped.")
		return nil
	}

	// Tạo superadmin nếu chưa có
	log.Println("Super admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("superadminpassword") // Đặt một password mặc định
	if err != nil {
		return err
	}

	superAdmin := models.User{
		Email:     superAdminEmail,
		Name:      "Super Admin",
		Password:  hashedPassword,
		Role:      "superadmin",
		Status:    "ACTIVE",
		CreatedAt: time.Now(),
	}

	_, err = userCollection.InsertOne(context.Background(), superAdmin)
	if err != nil {
		return err
	}

	log.Println("Super admin seeded successfully.")
	return nil
}
