// server/internal/models/part.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Part struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartCode    string             `bson:"partCode" json:"partCode"` // ID dễ đọc, duy nhất, ví dụ: "PRT-0042"
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description"`
	Unit        string             `bson:"unit" json:"unit"`         // e.g., "NOS", "KG", "MTR"
	Category    string             `bson:"category,omitempty" json:"category"`
	HSNCode     string             `bson:"hsnCode,omitempty" json:"hsnCode"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
