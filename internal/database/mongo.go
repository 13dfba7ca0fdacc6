// server/internal/database/mongo.go
package database

import (
	"context"
	"time"

	"procureflow-api-server/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect mở kết nối tới MongoDB và ping để chắc chắn server sẵn sàng.
func Connect(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes tạo các unique index bắt buộc.
// Unique index trên số chứng từ chính là cơ chế đảm bảo tính duy nhất khi
// hai request cùng tháng đua nhau sinh cùng một số thứ tự (xem docnum).
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		"purchase_orders": {Keys: bson.D{{Key: "poCode", Value: 1}}, Options: unique},
		"grns":            {Keys: bson.D{{Key: "grnNumber", Value: 1}}, Options: unique},
		"inspections":     {Keys: bson.D{{Key: "inspectionNumber", Value: 1}}, Options: unique},
		"vendors":         {Keys: bson.D{{Key: "vendorCode", Value: 1}}, Options: unique},
		"parts":           {Keys: bson.D{{Key: "partCode", Value: 1}}, Options: unique},
		"users":           {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	}

	for collection, model := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}

	// Mỗi GRN có tối đa một phiếu kiểm tra (quan hệ 1:1).
	_, err := db.Collection("inspections").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "grnNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
