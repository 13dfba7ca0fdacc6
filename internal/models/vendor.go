// server/internal/models/vendor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vendor struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VendorCode    string             `bson:"vendorCode" json:"vendorCode"` // ID dễ đọc, duy nhất, ví dụ: "VND-001"
	Name          string             `bson:"name" json:"name"`
	ContactPerson string             `bson:"contactPerson,omitempty" json:"contactPerson"`
	Phone         string             `bson:"phone,omitempty" json:"phone"`
	Email         string             `bson:"email,omitempty" json:"email"`
	Address       string             `bson:"address,omitempty" json:"address"`
	GSTNumber     string             `bson:"gstNumber,omitempty" json:"gstNumber"`
	Status        string             `bson:"status" json:"status"` // e.g., "ACTIVE", "INACTIVE", "BLACKLISTED"
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Snapshot trả về bản sao bất biến của vendor để nhúng vào chứng từ.
func (v *Vendor) Snapshot() VendorSnapshot {
	return VendorSnapshot{
		VendorCode:    v.VendorCode,
		Name:          v.Name,
		ContactPerson: v.ContactPerson,
		Phone:         v.Phone,
		Email:         v.Email,
		Address:       v.Address,
	}
}
