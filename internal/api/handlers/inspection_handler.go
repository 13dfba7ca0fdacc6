// server/internal/api/handlers/inspection_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"procureflow-api-server/internal/docnum"
	"procureflow-api-server/internal/ledger"
	"procureflow-api-server/internal/models"
	"procureflow-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InspectionHandler struct {
	DB  *mongo.Database
	Hub *socket.Hub
}

// --- Structs cho Request Body ---

type CreateInspectionPayload struct {
	GRNNumber string `json:"grnNumber" binding:"required"`
	Remarks   string `json:"remarks"`
}

type InspectionItemPayload struct {
	PartCode         string                       `json:"partCode" binding:"required"`
	AcceptedQuantity float64                      `json:"acceptedQuantity"`
	RejectedQuantity *float64                     `json:"rejectedQuantity"` // nil = dẫn xuất từ received - accepted
	Parameters       []models.InspectionParameter `json:"parameters"`
	Result           string                       `json:"result"`
	Remarks          string                       `json:"remarks"`
}

type UpdateInspectionPayload struct {
	Items   []InspectionItemPayload `json:"items"`
	Status  string                  `json:"status"` // "IN_PROGRESS" hoặc "COMPLETED"
	Remarks string                  `json:"remarks"`
}

// CreateInspection tạo phiếu kiểm tra chất lượng cho một GRN đã nộp.
// Các dòng hàng được copy từ GRN, và GRN chuyển sang INSPECTION_IN_PROGRESS
// trong cùng một transaction. Mỗi GRN chỉ có một phiếu kiểm tra (unique index).
func (h *InspectionHandler) CreateInspection(c *gin.Context) {
	creatorEmail := c.GetString("user_email")

	var payload CreateInspectionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grnCollection := h.DB.Collection("grns")
	inspectionCollection := h.DB.Collection("inspections")

	var grn models.GRN
	if err := grnCollection.FindOne(context.Background(), bson.M{"grnNumber": payload.GRNNumber}).Decode(&grn); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "GRN not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve GRN"})
		}
		return
	}
	if !grn.Status.InspectionReady() {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("GRN in status %s is not ready for inspection", grn.Status)})
		return
	}

	// Copy các dòng hàng từ GRN; receivedQuantity là mức trần cho phân bổ sau này
	items := make([]models.InspectionItem, 0, len(grn.Items))
	for _, grnItem := range grn.Items {
		items = append(items, models.InspectionItem{
			PartCode:         grnItem.PartCode,
			PartName:         grnItem.PartName,
			Unit:             grnItem.Unit,
			ReceivedQuantity: grnItem.ReceivedQuantity,
			Result:           models.ResultPending,
		})
	}

	var createdInspection models.Inspection
	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		now := time.Now()
		newInspection := models.Inspection{
			GRNNumber:     grn.GRNNumber,
			POCode:        grn.POCode,
			Vendor:        grn.Vendor,
			Items:         items,
			Status:        models.InspectionStatusPending,
			OverallResult: models.ResultPending,
			Remarks:       payload.Remarks,
			CreatedBy:     creatorEmail,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		start, end := docnum.MonthRange(now)
		count, err := inspectionCollection.CountDocuments(context.Background(), bson.M{
			"createdAt": bson.M{"$gte": start, "$lt": end},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate inspection number"})
			return
		}
		newInspection.InspectionNumber = docnum.InspectionNumber(now, count+1)

		session, err := h.DB.Client().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start database session"})
			return
		}

		callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
			result, err := inspectionCollection.InsertOne(sessCtx, newInspection)
			if err != nil {
				return nil, err
			}
			newInspection.ID = result.InsertedID.(primitive.ObjectID)

			// GRN chuyển sang đang kiểm tra trong cùng transaction
			_, err = grnCollection.UpdateOne(sessCtx,
				bson.M{"_id": grn.ID},
				bson.M{"$set": bson.M{"status": models.GRNStatusInspectionInProgress, "updatedAt": now}})
			if err != nil {
				return nil, err
			}
			return newInspection, nil
		}

		result, err := session.WithTransaction(context.Background(), callback)
		session.EndSession(context.Background())
		if err != nil {
			if docnum.IsDup(err) {
				// Trùng grnNumber nghĩa là GRN này đã có phiếu kiểm tra
				var existing models.Inspection
				if findErr := inspectionCollection.FindOne(context.Background(), bson.M{"grnNumber": grn.GRNNumber}).Decode(&existing); findErr == nil {
					c.JSON(http.StatusConflict, gin.H{"error": "An inspection already exists for this GRN", "inspectionNumber": existing.InspectionNumber})
					return
				}
				// Trùng inspectionNumber do đua đánh số, thử lại
				lastErr = err
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed", "details": err.Error()})
			return
		}

		createdInspection = result.(models.Inspection)
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.JSON(http.StatusConflict, gin.H{"error": docnum.ErrDuplicateNumber.Error(), "details": "Could not allocate a unique inspection number, please retry"})
		return
	}

	c.JSON(http.StatusCreated, createdInspection)
}

// UpdateInspection ghi nhận kết quả kiểm tra theo từng dòng hàng.
// Với mỗi dòng: accepted + rejected không được vượt received; rejected luôn
// được chuẩn hóa lại bằng received - accepted trước khi lưu.
// Khi payload.Status là COMPLETED, kết quả tổng hợp được dẫn xuất và trạng
// thái GRN + nhật ký giao hàng trên PO được cập nhật trong cùng transaction.
func (h *InspectionHandler) UpdateInspection(c *gin.Context) {
	inspectionNumber := c.Param("id")

	var payload UpdateInspectionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inspectionCollection := h.DB.Collection("inspections")
	grnCollection := h.DB.Collection("grns")
	poCollection := h.DB.Collection("purchase_orders")

	var updatedInspection models.Inspection
	var terminalGRNStatus models.GRNStatus
	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		var inspection models.Inspection
		if err := inspectionCollection.FindOne(context.Background(), bson.M{"inspectionNumber": inspectionNumber}).Decode(&inspection); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "Inspection not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inspection"})
			}
			return
		}
		if inspection.Status == models.InspectionStatusCompleted {
			c.JSON(http.StatusConflict, gin.H{"error": "Inspection is already completed"})
			return
		}

		for _, p := range payload.Items {
			item := inspection.FindItem(p.PartCode)
			if item == nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("part %s is not part of this inspection", p.PartCode)})
				return
			}

			if p.RejectedQuantity != nil {
				// Client gửi đủ cả hai vế: kiểm tra chặt accepted + rejected = received
				if _, _, err := ledger.ApplyDisposition(item.ReceivedQuantity, p.AcceptedQuantity, *p.RejectedQuantity); err != nil {
					respondLedgerError(c, err)
					return
				}
			}
			// Chuẩn hóa: rejected luôn là phần còn lại của received sau accepted
			rejected, err := ledger.DeriveRejected(item.ReceivedQuantity, p.AcceptedQuantity)
			if err != nil {
				respondLedgerError(c, err)
				return
			}
			item.AcceptedQuantity = p.AcceptedQuantity
			item.RejectedQuantity = rejected

			if p.Result != "" {
				result := models.InspectionResult(p.Result)
				switch result {
				case models.ResultPending, models.ResultPass, models.ResultFail, models.ResultConditional:
					item.Result = result
				default:
					c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid inspection result: %s", p.Result)})
					return
				}
			}
			if p.Parameters != nil {
				item.Parameters = p.Parameters
			}
			if p.Remarks != "" {
				item.Remarks = p.Remarks
			}
		}

		now := time.Now()
		if payload.Remarks != "" {
			inspection.Remarks = payload.Remarks
		}
		inspection.UpdatedAt = now

		completing := payload.Status == string(models.InspectionStatusCompleted)
		if completing {
			inspection.Status = models.InspectionStatusCompleted
			inspection.CompletionDate = &now

			// Kết quả tổng hợp dẫn xuất từ các dòng: fail > conditional > pass > pending
			results := make([]models.InspectionResult, 0, len(inspection.Items))
			for _, item := range inspection.Items {
				results = append(results, item.Result)
			}
			inspection.OverallResult = ledger.DeriveOverallResult(results)
			terminalGRNStatus = models.GRNStatusForResult(inspection.OverallResult)
		} else {
			inspection.Status = models.InspectionStatusInProgress
		}

		if !completing {
			// Chưa hoàn tất: chỉ ghi phiếu kiểm tra, không cần transaction
			if _, err := inspectionCollection.ReplaceOne(context.Background(), bson.M{"_id": inspection.ID}, inspection); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inspection"})
				return
			}
			c.JSON(http.StatusOK, inspection)
			return
		}

		// Hoàn tất: ghi phiếu + trạng thái GRN + nhật ký giao hàng PO trong một transaction
		var po models.PurchaseOrder
		if err := poCollection.FindOne(context.Background(), bson.M{"poCode": inspection.POCode}).Decode(&po); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		ledger.SetDeliveryLogStatus(&po, inspection.GRNNumber, terminalGRNStatus)

		session, err := h.DB.Client().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start database session"})
			return
		}

		callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
			if _, err := inspectionCollection.ReplaceOne(sessCtx, bson.M{"_id": inspection.ID}, inspection); err != nil {
				return nil, err
			}
			if _, err := grnCollection.UpdateOne(sessCtx,
				bson.M{"grnNumber": inspection.GRNNumber},
				bson.M{"$set": bson.M{"status": terminalGRNStatus, "updatedAt": now}}); err != nil {
				return nil, err
			}
			updateResult, err := poCollection.UpdateOne(sessCtx,
				bson.M{"_id": po.ID, "version": po.Version},
				bson.M{
					"$set": bson.M{"items": po.Items, "updatedAt": now},
					"$inc": bson.M{"version": 1},
				})
			if err != nil {
				return nil, err
			}
			if updateResult.ModifiedCount == 0 {
				return nil, errPOVersionConflict
			}
			return inspection, nil
		}

		result, err := session.WithTransaction(context.Background(), callback)
		session.EndSession(context.Background())
		if err != nil {
			if errors.Is(err, errPOVersionConflict) {
				lastErr = err
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed", "details": err.Error()})
			return
		}

		updatedInspection = result.(models.Inspection)
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase order is being updated concurrently, please retry"})
		return
	}

	// Báo cho bộ phận mua hàng biết kết quả kiểm tra sau khi commit
	notifyRole(h.Hub, "purchase", map[string]interface{}{
		"event":            "inspection_completed",
		"inspectionNumber": updatedInspection.InspectionNumber,
		"grnNumber":        updatedInspection.GRNNumber,
		"overallResult":    updatedInspection.OverallResult,
		"grnStatus":        terminalGRNStatus,
	})

	c.JSON(http.StatusOK, updatedInspection)
}

// GetInspectionByID lấy chi tiết một phiếu kiểm tra theo số phiếu.
func (h *InspectionHandler) GetInspectionByID(c *gin.Context) {
	inspectionNumber := c.Param("id")

	var inspection models.Inspection
	if err := h.DB.Collection("inspections").FindOne(context.Background(), bson.M{"inspectionNumber": inspectionNumber}).Decode(&inspection); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inspection not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inspection"})
		}
		return
	}

	c.JSON(http.StatusOK, inspection)
}

// GetInspectionByGRN lấy phiếu kiểm tra gắn với một GRN (quan hệ 1:1).
func (h *InspectionHandler) GetInspectionByGRN(c *gin.Context) {
	grnNumber := c.Param("grnNumber")

	var inspection models.Inspection
	if err := h.DB.Collection("inspections").FindOne(context.Background(), bson.M{"grnNumber": grnNumber}).Decode(&inspection); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "No inspection found for this GRN"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inspection"})
		}
		return
	}

	c.JSON(http.StatusOK, inspection)
}

// GetAllInspections lấy danh sách phiếu kiểm tra với bộ lọc và phân trang.
func (h *InspectionHandler) GetAllInspections(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if result := c.Query("result"); result != "" {
		filter["overallResult"] = result
	}
	if search := c.Query("search"); search != "" {
		filter["$or"] = []bson.M{
			{"inspectionNumber": bson.M{"$regex": search, "$options": "i"}},
			{"grnNumber": bson.M{"$regex": search, "$options": "i"}},
			{"poCode": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	limit := parsePositiveInt(c.Query("limit"), 20)
	offset := parsePositiveInt(c.Query("offset"), 0)

	collection := h.DB.Collection("inspections")

	total, err := collection.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count inspections"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query inspections"})
		return
	}
	defer cursor.Close(context.Background())

	var inspections []models.Inspection
	if err = cursor.All(context.Background(), &inspections); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode inspections"})
		return
	}
	if inspections == nil {
		inspections = []models.Inspection{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  inspections,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
