// server/internal/api/handlers/upload_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"procureflow-api-server/internal/models"
	"procureflow-api-server/internal/s3"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UploadHandler struct {
	DB       *mongo.Database
	Uploader *s3.Uploader
}

// UploadChallanPhoto nhận một file multipart, đẩy lên S3 và gắn
// MediaPointer vào phiếu nhập kho.
func (h *UploadHandler) UploadChallanPhoto(c *gin.Context) {
	grnNumber := c.Param("id")
	h.uploadAndAttach(c, "grns", "grnNumber", grnNumber, "challanPhotos", "challans")
}

// UploadInspectionReport nhận một file multipart, đẩy lên S3 và gắn
// MediaPointer vào phiếu kiểm tra chất lượng.
func (h *UploadHandler) UploadInspectionReport(c *gin.Context) {
	inspectionNumber := c.Param("id")
	h.uploadAndAttach(c, "inspections", "inspectionNumber", inspectionNumber, "reportPhotos", "inspection-reports")
}

func (h *UploadHandler) uploadAndAttach(c *gin.Context, collectionName, keyField, keyValue, photoField, prefix string) {
	// Chứng từ phải tồn tại trước khi nhận file
	collection := h.DB.Collection(collectionName)
	count, err := collection.CountDocuments(context.Background(), bson.M{keyField: keyValue})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for existing document"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	mediaID := uuid.New().String()
	objectKey := fmt.Sprintf("%s/%s/%s%s", prefix, keyValue, mediaID, filepath.Ext(fileHeader.Filename))

	url, err := h.Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file", "details": err.Error()})
		return
	}

	pointer := models.MediaPointer{
		ID:       mediaID,
		URL:      url,
		FileName: fileHeader.Filename,
		FileType: contentType,
	}

	_, err = collection.UpdateOne(context.Background(),
		bson.M{keyField: keyValue},
		bson.M{
			"$push": bson.M{photoField: pointer},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach file to document"})
		return
	}

	c.JSON(http.StatusCreated, pointer)
}
