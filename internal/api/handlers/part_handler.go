// server/internal/api/handlers/part_handler.go
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

type PartHandler struct {
	DB *mongo.Database
}

type CreatePartPayload struct {
	PartCode    string `json:"partCode" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Unit        string `json:"unit" binding:"required"`
	Category    string `json:"category"`
	HSNCode     string `json:"hsnCode"`
}

type UpdatePartPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Category    string `json:"category"`
	HSNCode     string `json:"hsnCode"`
	Active      *bool  `json:"active"`
}

// CreatePart thêm một mặt hàng mới vào danh mục.
func (h *PartHandler) CreatePart(c *gin.Context) {
	var payload CreatePartPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("parts")

	count, err := collection.CountDocuments(context.Background(), bson.M{"partCode": payload.PartCode})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for existing part"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A part with this code already exists"})
		return
	}

	now := time.Now()
	newPart := models.Part{
		PartCode:    payload.PartCode,
		Name:        payload.Name,
		Description: payload.Description,
		Unit:        payload.Unit,
		Category:    payload.Category,
		HSNCode:     payload.HSNCode,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := collection.InsertOne(context.Background(), newPart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create part"})
		return
	}
	newPart.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, newPart)
}

// UpdatePart cập nhật một mặt hàng trong danh mục.
func (h *PartHandler) UpdatePart(c *gin.Context) {
	partCode := c.Param("id")

	var payload UpdatePartPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if payload.Name != "" {
		update["name"] = payload.Name
	}
	if payload.Description != "" {
		update["description"] = payload.Description
	}
	if payload.Unit != "" {
		update["unit"] = payload.Unit
	}
	if payload.Category != "" {
		update["category"] = payload.Category
	}
	if payload.HSNCode != "" {
		update["hsnCode"] = payload.HSNCode
	}
	if payload.Active != nil {
		update["active"] = *payload.Active
	}

	collection := h.DB.Collection("parts")
	result, err := collection.UpdateOne(context.Background(), bson.M{"partCode": partCode}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update part"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Part not found"})
		return
	}

	var part models.Part
	if err := collection.FindOne(context.Background(), bson.M{"partCode": partCode}).Decode(&part); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve part"})
		return
	}
	c.JSON(http.StatusOK, part)
}

// GetPartByID lấy một mặt hàng theo partCode.
func (h *PartHandler) GetPartByID(c *gin.Context) {
	partCode := c.Param("id")

	var part models.Part
	if err := h.DB.Collection("parts").FindOne(context.Background(), bson.M{"partCode": partCode}).Decode(&part); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Part not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve part"})
		}
		return
	}

	c.JSON(http.StatusOK, part)
}

// GetAllParts lấy danh mục mặt hàng.
func (h *PartHandler) GetAllParts(c *gin.Context) {
	filter := bson.M{}
	if c.Query("active") == "true" {
		filter["active"] = true
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}
	if search := c.Query("search"); search != "" {
		filter["$or"] = []bson.M{
			{"partCode": bson.M{"$regex": search, "$options": "i"}},
			{"name": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	cursor, err := h.DB.Collection("parts").Find(context.Background(), filter,
		options.Find().SetSort(bson.D{{Key: "partCode", Value: 1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query parts"})
		return
	}
	defer cursor.Close(context.Background())

	var parts []models.Part
	if err = cursor.All(context.Background(), &parts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode parts"})
		return
	}
	if parts == nil {
		parts = []models.Part{}
	}

	c.JSON(http.StatusOK, parts)
}
