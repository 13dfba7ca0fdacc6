// server/internal/api/handlers/grn_handler.go
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

type GRNHandler struct {
	DB  *mongo.Database
	Hub *socket.Hub
}

// errPOVersionConflict báo hiệu bản cập nhật PO thua cuộc đua optimistic lock;
// toàn bộ transaction được thử lại với trạng thái PO mới nhất.
var errPOVersionConflict = errors.New("purchase order was modified concurrently")

// --- Structs cho Request Body ---

type GRNItemPayload struct {
	PartCode         string  `json:"partCode" binding:"required"`
	ReceivedQuantity float64 `json:"receivedQuantity" binding:"required"`
	UnitPrice        float64 `json:"unitPrice"`
	Remarks          string  `json:"remarks"`
}

type CreateGRNPayload struct {
	POCode        string                  `json:"poCode" binding:"required"`
	ChallanNumber string                  `json:"challanNumber" binding:"required"`
	ChallanDate   string                  `json:"challanDate" binding:"required"` // "2006-01-02"
	ReceivedDate  string                  `json:"receivedDate" binding:"required"`
	Status        string                  `json:"status"` // "DRAFT" hoặc "SUBMITTED"
	Transport     models.TransportDetails `json:"transport"`
	Items         []GRNItemPayload        `json:"items" binding:"required,dive"`
	Remarks       string                  `json:"remarks"`
}

type UpdateGRNPayload struct {
	ChallanNumber string                  `json:"challanNumber"`
	ChallanDate   string                  `json:"challanDate"`
	ReceivedDate  string                  `json:"receivedDate"`
	Status        string                  `json:"status"`
	Transport     models.TransportDetails `json:"transport"`
	Items         []GRNItemPayload        `json:"items"`
	Remarks       string                  `json:"remarks"`
}

// CreateGRN xử lý việc tạo phiếu nhập kho mới theo một PO.
// Toàn bộ ghi GRN + cập nhật số lượng PO chạy trong MỘT transaction:
// lỗi ở bất kỳ dòng hàng nào sẽ hủy cả phiếu, PO không bị sửa một phần.
func (h *GRNHandler) CreateGRN(c *gin.Context) {
	creatorEmail := c.GetString("user_email")

	var payload CreateGRNPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challanDate, err := time.Parse("2006-01-02", payload.ChallanDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "challanDate must be in YYYY-MM-DD format"})
		return
	}
	receivedDate, err := time.Parse("2006-01-02", payload.ReceivedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receivedDate must be in YYYY-MM-DD format"})
		return
	}

	poCollection := h.DB.Collection("purchase_orders")
	grnCollection := h.DB.Collection("grns")

	var createdGRN models.GRN

	// Thử lại khi thua cuộc đua đánh số chứng từ hoặc optimistic lock trên PO.
	// Lỗi số lượng là deterministic nên không được thử lại.
	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		// Luôn đọc lại PO mới nhất (kèm version) cho mỗi lần thử
		var po models.PurchaseOrder
		if err := poCollection.FindOne(context.Background(), bson.M{"poCode": payload.POCode}).Decode(&po); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			}
			return
		}
		if !po.Status.CanReceiveGoods() {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot receive goods against a %s purchase order", po.Status)})
			return
		}

		now := time.Now()
		newGRN := models.GRN{
			POCode:        po.POCode,
			Vendor:        po.Vendor, // snapshot đã nằm sẵn trên PO
			ChallanNumber: payload.ChallanNumber,
			ChallanDate:   challanDate,
			ReceivedDate:  receivedDate,
			Transport:     payload.Transport,
			Status:        models.GRNStatusDraft,
			Remarks:       payload.Remarks,
			CreatedBy:     creatorEmail,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// Trạng thái SUBMITTED khi tạo nghĩa là phiếu chờ kiểm tra chất lượng ngay
		if payload.Status == string(models.GRNStatusSubmitted) {
			newGRN.Status = models.GRNStatusInspectionPending
		}

		items, buildErr := buildGRNItems(&po, payload.Items)
		if buildErr != nil {
			respondLedgerError(c, buildErr)
			return
		}
		newGRN.Items = items
		for _, item := range newGRN.Items {
			newGRN.TotalValue += item.TotalPrice
		}

		// Áp các dòng hàng vào PO (all-or-nothing, thuần logic, chưa ghi DB)
		if err := ledger.ApplyGRNToPO(&po, &newGRN); err != nil {
			respondLedgerError(c, err)
			return
		}

		// Sinh số chứng từ theo tháng; unique index trên grnNumber là chốt chặn
		// cuối cùng khi hai request cùng đếm ra một số thứ tự.
		start, end := docnum.MonthRange(now)
		count, err := grnCollection.CountDocuments(context.Background(), bson.M{
			"createdAt": bson.M{"$gte": start, "$lt": end},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate GRN number"})
			return
		}
		newGRN.GRNNumber = docnum.GRNNumber(now, count+1)
		newGRN.InvoiceNumber = docnum.InvoiceNumberForGRN(newGRN.GRNNumber)
		relabelDeliveries(&po, "", newGRN.GRNNumber)

		session, err := h.DB.Client().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start database session"})
			return
		}

		callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
			result, err := grnCollection.InsertOne(sessCtx, newGRN)
			if err != nil {
				return nil, err // duplicate key sẽ hủy transaction và kích hoạt retry
			}
			newGRN.ID = result.InsertedID.(primitive.ObjectID)

			// Backfill ObjectID của GRN vào nhật ký giao hàng trong cùng transaction
			backfillDeliveryIDs(&po, newGRN.GRNNumber, newGRN.ID.Hex())

			// Cập nhật PO có kiểm tra version: nếu một GRN khác vừa commit trước,
			// ModifiedCount sẽ là 0 và toàn bộ transaction được làm lại từ đầu.
			updateResult, err := poCollection.UpdateOne(sessCtx,
				bson.M{"_id": po.ID, "version": po.Version},
				bson.M{
					"$set": bson.M{
						"items":            po.Items,
						"status":           po.Status,
						"deliveryStatus":   po.DeliveryStatus,
						"isFullyDelivered": po.IsFullyDelivered,
						"updatedAt":        now,
					},
					"$inc": bson.M{"version": 1},
				})
			if err != nil {
				return nil, err
			}
			if updateResult.ModifiedCount == 0 {
				return nil, errPOVersionConflict
			}
			return newGRN, nil
		}

		result, err := session.WithTransaction(context.Background(), callback)
		session.EndSession(context.Background())
		if err != nil {
			if docnum.IsDup(err) || errors.Is(err, errPOVersionConflict) {
				lastErr = err
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed", "details": err.Error()})
			return
		}

		createdGRN = result.(models.GRN)
		lastErr = nil
		break
	}

	if lastErr != nil {
		if docnum.IsDup(lastErr) {
			c.JSON(http.StatusConflict, gin.H{"error": docnum.ErrDuplicateNumber.Error(), "details": "Could not allocate a unique GRN number, please retry"})
		} else {
			c.JSON(http.StatusConflict, gin.H{"error": "Purchase order is being updated concurrently, please retry"})
		}
		return
	}

	// Thông báo cho bộ phận QC sau khi commit (fire-and-forget)
	notifyRole(h.Hub, "qc", map[string]interface{}{
		"event":     "grn_created",
		"grnNumber": createdGRN.GRNNumber,
		"poCode":    createdGRN.POCode,
		"status":    createdGRN.Status,
	})

	c.JSON(http.StatusCreated, createdGRN)
}

// UpdateGRN cập nhật một phiếu nhập kho khi còn ở trạng thái DRAFT.
// Số lượng cũ được hoàn lại cho PO rồi áp lại số lượng mới trong cùng transaction.
func (h *GRNHandler) UpdateGRN(c *gin.Context) {
	grnNumber := c.Param("id")

	var payload UpdateGRNPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grnCollection := h.DB.Collection("grns")
	poCollection := h.DB.Collection("purchase_orders")

	var updatedGRN models.GRN
	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		var grn models.GRN
		if err := grnCollection.FindOne(context.Background(), bson.M{"grnNumber": grnNumber}).Decode(&grn); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "GRN not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve GRN"})
			}
			return
		}
		if grn.Status != models.GRNStatusDraft {
			c.JSON(http.StatusConflict, gin.H{"error": "Only draft GRNs can be updated"})
			return
		}

		var po models.PurchaseOrder
		if err := poCollection.FindOne(context.Background(), bson.M{"poCode": grn.POCode}).Decode(&po); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if !po.Status.CanReceiveGoods() {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot modify receipts against a %s purchase order", po.Status)})
			return
		}

		now := time.Now()
		if payload.ChallanNumber != "" {
			grn.ChallanNumber = payload.ChallanNumber
		}
		if payload.ChallanDate != "" {
			d, err := time.Parse("2006-01-02", payload.ChallanDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "challanDate must be in YYYY-MM-DD format"})
				return
			}
			grn.ChallanDate = d
		}
		if payload.ReceivedDate != "" {
			d, err := time.Parse("2006-01-02", payload.ReceivedDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "receivedDate must be in YYYY-MM-DD format"})
				return
			}
			grn.ReceivedDate = d
		}
		if payload.Remarks != "" {
			grn.Remarks = payload.Remarks
		}
		grn.Transport = payload.Transport
		grn.UpdatedAt = now

		// Hoàn lại số lượng phiên bản cũ của phiếu trước khi áp bản mới
		ledger.ReverseGRNFromPO(&po, grn.GRNNumber)

		if len(payload.Items) > 0 {
			items, buildErr := buildGRNItems(&po, payload.Items)
			if buildErr != nil {
				respondLedgerError(c, buildErr)
				return
			}
			grn.Items = items
		}
		grn.TotalValue = 0
		for _, item := range grn.Items {
			grn.TotalValue += item.TotalPrice
		}

		if payload.Status == string(models.GRNStatusSubmitted) {
			grn.Status = models.GRNStatusInspectionPending
		}

		if err := ledger.ApplyGRNToPO(&po, &grn); err != nil {
			respondLedgerError(c, err)
			return
		}
		backfillDeliveryIDs(&po, grn.GRNNumber, grn.ID.Hex())
		// Phiếu được nộp đi: PO chuyển sang GRN_CREATED bất kể mức độ giao hàng
		if grn.Status == models.GRNStatusInspectionPending {
			po.Status = models.POStatusGRNCreated
		}

		session, err := h.DB.Client().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start database session"})
			return
		}

		callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
			if _, err := grnCollection.ReplaceOne(sessCtx, bson.M{"_id": grn.ID}, grn); err != nil {
				return nil, err
			}
			updateResult, err := poCollection.UpdateOne(sessCtx,
				bson.M{"_id": po.ID, "version": po.Version},
				bson.M{
					"$set": bson.M{
						"items":            po.Items,
						"status":           po.Status,
						"deliveryStatus":   po.DeliveryStatus,
						"isFullyDelivered": po.IsFullyDelivered,
						"updatedAt":        now,
					},
					"$inc": bson.M{"version": 1},
				})
			if err != nil {
				return nil, err
			}
			if updateResult.ModifiedCount == 0 {
				return nil, errPOVersionConflict
			}
			return grn, nil
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

		updatedGRN = result.(models.GRN)
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase order is being updated concurrently, please retry"})
		return
	}

	if updatedGRN.Status == models.GRNStatusInspectionPending {
		notifyRole(h.Hub, "qc", map[string]interface{}{
			"event":     "grn_submitted",
			"grnNumber": updatedGRN.GRNNumber,
			"poCode":    updatedGRN.POCode,
		})
	}

	c.JSON(http.StatusOK, updatedGRN)
}

// DeleteGRN xóa một phiếu nhập kho còn DRAFT và hoàn lại số lượng cho PO.
func (h *GRNHandler) DeleteGRN(c *gin.Context) {
	grnNumber := c.Param("id")

	grnCollection := h.DB.Collection("grns")
	poCollection := h.DB.Collection("purchase_orders")

	var lastErr error
	for attempt := 0; attempt < docnum.MaxRetries; attempt++ {
		var grn models.GRN
		if err := grnCollection.FindOne(context.Background(), bson.M{"grnNumber": grnNumber}).Decode(&grn); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "GRN not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve GRN"})
			}
			return
		}
		if grn.Status != models.GRNStatusDraft {
			c.JSON(http.StatusConflict, gin.H{"error": "Only draft GRNs can be deleted"})
			return
		}

		var po models.PurchaseOrder
		if err := poCollection.FindOne(context.Background(), bson.M{"poCode": grn.POCode}).Decode(&po); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if !po.Status.CanReceiveGoods() {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Cannot modify receipts against a %s purchase order", po.Status)})
			return
		}

		ledger.ReverseGRNFromPO(&po, grn.GRNNumber)
		now := time.Now()

		session, err := h.DB.Client().StartSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start database session"})
			return
		}

		callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
			if _, err := grnCollection.DeleteOne(sessCtx, bson.M{"_id": grn.ID}); err != nil {
				return nil, err
			}
			updateResult, err := poCollection.UpdateOne(sessCtx,
				bson.M{"_id": po.ID, "version": po.Version},
				bson.M{
					"$set": bson.M{
						"items":            po.Items,
						"status":           po.Status,
						"deliveryStatus":   po.DeliveryStatus,
						"isFullyDelivered": po.IsFullyDelivered,
						"updatedAt":        now,
					},
					"$inc": bson.M{"version": 1},
				})
			if err != nil {
				return nil, err
			}
			if updateResult.ModifiedCount == 0 {
				return nil, errPOVersionConflict
			}
			return nil, nil
		}

		_, err = session.WithTransaction(context.Background(), callback)
		session.EndSession(context.Background())
		if err != nil {
			if errors.Is(err, errPOVersionConflict) {
				lastErr = err
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed", "details": err.Error()})
			return
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase order is being updated concurrently, please retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "GRN deleted successfully"})
}

// GetGRNByID lấy chi tiết một phiếu nhập kho kèm thông tin PO liên quan.
func (h *GRNHandler) GetGRNByID(c *gin.Context) {
	grnNumber := c.Param("id")

	var grn models.GRN
	if err := h.DB.Collection("grns").FindOne(context.Background(), bson.M{"grnNumber": grnNumber}).Decode(&grn); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "GRN not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve GRN"})
		}
		return
	}

	// Join PO để client thấy được tiến độ giao hàng hiện tại
	var po models.PurchaseOrder
	if err := h.DB.Collection("purchase_orders").FindOne(context.Background(), bson.M{"poCode": grn.POCode}).Decode(&po); err != nil && err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"grn": grn,
		"purchaseOrder": gin.H{
			"poCode":           po.POCode,
			"status":           po.Status,
			"deliveryStatus":   po.DeliveryStatus,
			"isFullyDelivered": po.IsFullyDelivered,
			"items":            po.Items,
		},
	})
}

// GetAllGRNs lấy danh sách phiếu nhập kho với bộ lọc và phân trang.
// Hỗ trợ: ?search=..., ?status=..., ?from=YYYY-MM-DD, ?to=YYYY-MM-DD, ?limit, ?offset
func (h *GRNHandler) GetAllGRNs(c *gin.Context) {
	filter := buildGRNListFilter(c.Query("search"), c.Query("status"), c.Query("from"), c.Query("to"))

	limit := parsePositiveInt(c.Query("limit"), 20)
	offset := parsePositiveInt(c.Query("offset"), 0)

	collection := h.DB.Collection("grns")

	total, err := collection.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count GRNs"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query GRNs"})
		return
	}
	defer cursor.Close(context.Background())

	var grns []models.GRN
	if err = cursor.All(context.Background(), &grns); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode GRNs"})
		return
	}
	if grns == nil {
		grns = []models.GRN{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  grns,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// --- Helpers ---

// buildGRNItems dựng các dòng hàng GRN từ payload, snapshot tên/đơn vị/số
// lượng đặt từ PO. Dòng nào tham chiếu part không có trong PO sẽ bị từ chối.
func buildGRNItems(po *models.PurchaseOrder, payloads []GRNItemPayload) ([]models.GRNItem, error) {
	items := make([]models.GRNItem, 0, len(payloads))
	for _, p := range payloads {
		poItem := po.FindItem(p.PartCode)
		if poItem == nil {
			return nil, fmt.Errorf("part %s: %w", p.PartCode, ledger.ErrItemNotInOrder)
		}
		unitPrice := p.UnitPrice
		if unitPrice == 0 {
			unitPrice = poItem.UnitPrice
		}
		items = append(items, models.GRNItem{
			PartCode:         p.PartCode,
			PartName:         poItem.PartName,
			Unit:             poItem.Unit,
			OrderedQuantity:  poItem.OrderedQuantity,
			ReceivedQuantity: p.ReceivedQuantity,
			UnitPrice:        unitPrice,
			TotalPrice:       p.ReceivedQuantity * unitPrice,
			Remarks:          p.Remarks,
		})
	}
	return items, nil
}

// buildGRNListFilter dựng bộ lọc Mongo cho danh sách GRN.
func buildGRNListFilter(search, status, from, to string) bson.M {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if search != "" {
		filter["$or"] = []bson.M{
			{"grnNumber": bson.M{"$regex": search, "$options": "i"}},
			{"poCode": bson.M{"$regex": search, "$options": "i"}},
			{"challanNumber": bson.M{"$regex": search, "$options": "i"}},
			{"vendor.name": bson.M{"$regex": search, "$options": "i"}},
		}
	}
	dateFilter := bson.M{}
	if from != "" {
		if d, err := time.Parse("2006-01-02", from); err == nil {
			dateFilter["$gte"] = d
		}
	}
	if to != "" {
		if d, err := time.Parse("2006-01-02", to); err == nil {
			dateFilter["$lt"] = d.AddDate(0, 0, 1)
		}
	}
	if len(dateFilter) > 0 {
		filter["receivedDate"] = dateFilter
	}
	return filter
}

// relabelDeliveries đổi nhãn grnNumber trong nhật ký giao hàng của PO
// (dùng khi số chứng từ chỉ được sinh sau khi các dòng đã được áp).
func relabelDeliveries(po *models.PurchaseOrder, oldNumber, newNumber string) {
	for i := range po.Items {
		for j := range po.Items[i].GRNDeliveries {
			if po.Items[i].GRNDeliveries[j].GRNNumber == oldNumber {
				po.Items[i].GRNDeliveries[j].GRNNumber = newNumber
			}
		}
	}
}

// backfillDeliveryIDs gán ObjectID của GRN vào các dòng nhật ký tương ứng.
func backfillDeliveryIDs(po *models.PurchaseOrder, grnNumber, grnID string) {
	for i := range po.Items {
		for j := range po.Items[i].GRNDeliveries {
			if po.Items[i].GRNDeliveries[j].GRNNumber == grnNumber {
				po.Items[i].GRNDeliveries[j].GRNID = grnID
			}
		}
	}
}

// respondLedgerError ánh xạ lỗi từ quantity ledger sang HTTP status phù hợp.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrQuantityExceeded), errors.Is(err, ledger.ErrInvalidQuantity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrItemNotInOrder):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
