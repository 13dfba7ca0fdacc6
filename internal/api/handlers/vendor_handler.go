// server/internal/api/handlers/vendor_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"procureflow-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VendorHandler struct {
	DB *mongo.Database
}

type CreateVendorPayload struct {
	VendorCode    string `json:"vendorCode" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GSTNumber     string `json:"gstNumber"`
}

type UpdateVendorPayload struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GSTNumber     string `json:"gstNumber"`
	Status        string `json:"status"`
}

// CreateVendor tạo một nhà cung cấp mới.
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var payload CreateVendorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("vendors")

	// Kiểm tra vendorCode đã tồn tại chưa
	count, err := collection.CountDocuments(context.Background(), bson.M{"vendorCode": payload.VendorCode})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for existing vendor"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A vendor with this code already exists"})
		return
	}

	now := time.Now()
	newVendor := models.Vendor{
		VendorCode:    payload.VendorCode,
		Name:          payload.Name,
		ContactPerson: payload.ContactPerson,
		Phone:         payload.Phone,
		Email:         payload.Email,
		Address:       payload.Address,
		GSTNumber:     payload.GSTNumber,
		Status:        "ACTIVE",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := collection.InsertOne(context.Background(), newVendor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vendor"})
		return
	}
	newVendor.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, newVendor)
}

// UpdateVendor cập nhật thông tin một nhà cung cấp.
// Các chứng từ đã tạo giữ nguyên snapshot cũ, không bị ảnh hưởng.
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	vendorCode := c.Param("id")

	var payload UpdateVendorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if payload.Name != "" {
		update["name"] = payload.Name
	}
	if payload.ContactPerson != "" {
		update["contactPerson"] = payload.ContactPerson
	}
	if payload.Phone != "" {
		update["phone"] = payload.Phone
	}
	if payload.Email != "" {
		update["email"] = payload.Email
	}
	if payload.Address != "" {
		update["address"] = payload.Address
	}
	if payload.GSTNumber != "" {
		update["gstNumber"] = payload.GSTNumber
	}
	if payload.Status != "" {
		update["status"] = payload.Status
	}

	collection := h.DB.Collection("vendors")
	result, err := collection.UpdateOne(context.Background(), bson.M{"vendorCode": vendorCode}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	var vendor models.Vendor
	if err := collection.FindOne(context.Background(), bson.M{"vendorCode": vendorCode}).Decode(&vendor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vendor"})
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// GetVendorByID lấy một nhà cung cấp theo vendorCode.
func (h *VendorHandler) GetVendorByID(c *gin.Context) {
	vendorCode := c.Param("id")

	var vendor models.Vendor
	if err := h.DB.Collection("vendors").FindOne(context.Background(), bson.M{"vendorCode": vendorCode}).Decode(&vendor); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vendor"})
		}
		return
	}

	c.JSON(http.StatusOK, vendor)
}

// GetAllVendors lấy danh sách nhà cung cấp.
func (h *VendorHandler) GetAllVendors(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if search := c.Query("search"); search != "" {
		filter["$or"] = []bson.M{
			{"vendorCode": bson.M{"$regex": search, "$options": "i"}},
			{"name": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	cursor, err := h.DB.Collection("vendors").Find(context.Background(), filter,
		options.Find().SetSort(bson.D{{Key: "vendorCode", Value: 1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query vendors"})
		return
	}
	defer cursor.Close(context.Background())

	var vendors []models.Vendor
	if err = cursor.All(context.Background(), &vendors); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode vendors"})
		return
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}

	c.JSON(http.StatusOK, vendors)
}
