// server/internal/api/handlers/po_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"procureflow-api-server/internal/docnum"
	"procureflow-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type POHandler struct {
	DB *mongo.Database
}

// --- Structs cho Request Body ---

type POItemPayload struct {
	PartCode        string  `json:"partCode" binding:"required"`
	OrderedQuantity float64 `json:"orderedQuantity" binding:"required,gt=0"`
	UnitPrice       float64 `json:"unitPrice" binding:"gte=0"`
}

type CreatePOPayload struct {
	VendorCode string          `json:"vendorCode" binding:"required"`
	Items      []POItemPayload `json:"items" binding:"required,min=1,dive"`
	Remarks    string          `json:"remarks"`
}

type UpdatePOPayload struct {
	VendorCode string          `json:"vendorCode"`
	Items      []POItemPayload `json:"items"`
	Remarks    string          `json:"remarks"`
}

// CreatePO tạo một đơn đặt hàng mới ở trạng thái DRAFT.
// Thông tin vendor và part được snapshot vào đơn tại thời điểm tạo.
func (h *POHandler) CreatePO(c *gin.Context) {
	creatorEmail := c.GetString("user_email")

	var payload CreatePOPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Vendor phải tồn tại và đang hoạt động
	var vendor models.Vendor
	if err := h.DB.Collection("vendors").FindOne(context.Background(), bson.M{"vendorCode": payload.VendorCode}).Decode(&vendor); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vendor"})
		}
		return
	}
	if vendor.Status != "ACTIVE" {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Vendor %s is %s", vendor.VendorCode, vendor.Status)})
		return
	}

	items, totalValue, err := h.buildPOItems(payload.Items)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	poCollection := h.DB.Collection("purchase_orders")

	var createdPO models.PurchaseOrder
	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		now := time.Now()
		newPO := models.PurchaseOrder{
			Vendor:           vendor.Snapshot(),
			Items:            items,
			Status:           models.POStatusDraft,
			DeliveryStatus:   models.DeliveryStatusPending,
			IsFullyDelivered: false,
			TotalValue:       totalValue,
			Remarks:          payload.Remarks,
			Version:          0,
			CreatedBy:        creatorEmail,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		start, end := docnum.MonthRange(now)
		count, err := poCollection.CountDocuments(context.Background(), bson.M{
			"createdAt": bson.M{"$gte": start, "$lt": end},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PO number"})
			return
		}
		newPO.POCode = docnum.PONumber(now, count+1)

		result, err := poCollection.InsertOne(context.Background(), newPO)
		if err != nil {
			if docnum.IsDup(err) {
				lastErr = err
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purchase order"})
			return
		}
		newPO.ID = result.InsertedID.(primitive.ObjectID)

		createdPO = newPO
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.JSON(http.StatusConflict, gin.H{"error": docnum.ErrDuplicateNumber.Error(), "details": "Could not allocate a unique PO number, please retry"})
		return
	}

	c.JSON(http.StatusCreated, createdPO)
}

// UpdatePO cập nhật một đơn đặt hàng còn ở trạng thái DRAFT.
func (h *POHandler) UpdatePO(c *gin.Context) {
	poCode := c.Param("id")

	var payload UpdatePOPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	poCollection := h.DB.Collection("purchase_orders")

	var po models.PurchaseOrder
	if err := poCollection.FindOne(context.Background(), bson.M{"poCode": poCode}).Decode(&po); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
		}
		return
	}
	if po.Status != models.POStatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft purchase orders can be updated"})
		return
	}

	update := bson.M{"updatedAt": time.Now()}

	if payload.VendorCode != "" && payload.VendorCode != po.Vendor.VendorCode {
		var vendor models.Vendor
		if err := h.DB.Collection("vendors").FindOne(context.Background(), bson.M{"vendorCode": payload.VendorCode}).Decode(&vendor); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
			return
		}
		update["vendor"] = vendor.Snapshot()
	}

	if len(payload.Items) > 0 {
		items, totalValue, err := h.buildPOItems(payload.Items)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		update["items"] = items
		update["totalValue"] = totalValue
	}

	if payload.Remarks != "" {
		update["remarks"] = payload.Remarks
	}

	result, err := poCollection.UpdateOne(context.Background(),
		bson.M{"_id": po.ID, "status": models.POStatusDraft},
		bson.M{"$set": update, "$inc": bson.M{"version": 1}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase order"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase order was modified concurrently, please retry"})
		return
	}

	if err := poCollection.FindOne(context.Background(), bson.M{"_id": po.ID}).Decode(&po); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
		return
	}
	c.JSON(http.StatusOK, po)
}

// SubmitPO chuyển đơn từ DRAFT sang CREATED, sẵn sàng nhận hàng.
func (h *POHandler) SubmitPO(c *gin.Context) {
	h.transitionPO(c, models.POStatusCreated, "Purchase order submitted successfully")
}

// ApprovePO đóng đơn sau khi toàn bộ hàng đã nhận và kiểm tra xong.
func (h *POHandler) ApprovePO(c *gin.Context) {
	h.transitionPO(c, models.POStatusApproved, "Purchase order approved successfully")
}

// CancelPO hủy một đơn chưa đi vào giai đoạn nhận hàng hoàn chỉnh.
func (h *POHandler) CancelPO(c *gin.Context) {
	h.transitionPO(c, models.POStatusCancelled, "Purchase order cancelled successfully")
}

// transitionPO áp một bước chuyển trạng thái với kiểm tra CanTransitionTo.
// Filter theo trạng thái hiện tại để hai request đồng thời không cùng thắng.
func (h *POHandler) transitionPO(c *gin.Context, next models.POStatus, successMessage string) {
	poCode := c.Param("id")
	poCollection := h.DB.Collection("purchase_orders")

	var po models.PurchaseOrder
	if err := poCollection.FindOne(context.Background(), bson.M{"poCode": poCode}).Decode(&po); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
		}
		return
	}

	if !po.Status.CanTransitionTo(next) {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot transition purchase order from %s to %s", po.Status, next)})
		return
	}

	result, err := poCollection.UpdateOne(context.Background(),
		bson.M{"_id": po.ID, "status": po.Status},
		bson.M{
			"$set": bson.M{"status": next, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase order"})
		return
	}
	if result.ModifiedCount == 0 {
		// Ai đó đã đổi trạng thái trước, "ai nhanh hơn người đó thắng"
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase order status was changed concurrently, please retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": successMessage, "poCode": poCode, "status": next})
}

// GetPOByID lấy chi tiết một đơn đặt hàng theo poCode.
func (h *POHandler) GetPOByID(c *gin.Context) {
	poCode := c.Param("id")

	var po models.PurchaseOrder
	if err := h.DB.Collection("purchase_orders").FindOne(context.Background(), bson.M{"poCode": poCode}).Decode(&po); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
		}
		return
	}

	c.JSON(http.StatusOK, po)
}

// GetAllPOs lấy danh sách đơn đặt hàng với bộ lọc và phân trang.
func (h *POHandler) GetAllPOs(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if deliveryStatus := c.Query("deliveryStatus"); deliveryStatus != "" {
		filter["deliveryStatus"] = deliveryStatus
	}
	if vendorCode := c.Query("vendorCode"); vendorCode != "" {
		filter["vendor.vendorCode"] = vendorCode
	}
	if search := c.Query("search"); search != "" {
		filter["$or"] = []bson.M{
			{"poCode": bson.M{"$regex": search, "$options": "i"}},
			{"vendor.name": bson.M{"$regex": search, "$options": "i"}},
			{"items.partCode": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	limit := parsePositiveInt(c.Query("limit"), 20)
	offset := parsePositiveInt(c.Query("offset"), 0)

	collection := h.DB.Collection("purchase_orders")

	total, err := collection.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count purchase orders"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query purchase orders"})
		return
	}
	defer cursor.Close(context.Background())

	var pos []models.PurchaseOrder
	if err = cursor.All(context.Background(), &pos); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode purchase orders"})
		return
	}
	if pos == nil {
		pos = []models.PurchaseOrder{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  pos,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// buildPOItems dựng các dòng hàng PO, snapshot tên và đơn vị từ danh mục part.
func (h *POHandler) buildPOItems(payloads []POItemPayload) ([]models.POItem, float64, error) {
	items := make([]models.POItem, 0, len(payloads))
	var totalValue float64
	for _, p := range payloads {
		var part models.Part
		if err := h.DB.Collection("parts").FindOne(context.Background(), bson.M{"partCode": p.PartCode}).Decode(&part); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, 0, fmt.Errorf("part %s not found", p.PartCode)
			}
			return nil, 0, fmt.Errorf("failed to retrieve part %s", p.PartCode)
		}
		totalPrice := p.OrderedQuantity * p.UnitPrice
		items = append(items, models.POItem{
			PartCode:          part.PartCode,
			PartName:          part.Name,
			Unit:              part.Unit,
			OrderedQuantity:   p.OrderedQuantity,
			DeliveredQuantity: 0,
			PendingQuantity:   p.OrderedQuantity,
			UnitPrice:         p.UnitPrice,
			TotalPrice:        totalPrice,
			GRNDeliveries:     []models.GRNDelivery{},
		})
		totalValue += totalPrice
	}
	return items, totalValue, nil
}
