// server/internal/models/purchase_order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// POStatus là trạng thái vòng đời của đơn đặt hàng.
type POStatus string

const (
	POStatusDraft      POStatus = "DRAFT"
	POStatusCreated    POStatus = "CREATED"
	POStatusInProgress POStatus = "IN_PROGRESS"
	POStatusGRNCreated POStatus = "GRN_CREATED"
	POStatusApproved   POStatus = "APPROVED"
	POStatusCancelled  POStatus = "CANCELLED"
)

// DeliveryStatus là trạng thái giao hàng tổng hợp của đơn đặt hàng.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusPartially DeliveryStatus = "PARTIALLY_DELIVERED"
	DeliveryStatusFully     DeliveryStatus = "FULLY_DELIVERED"
)

// GRNDelivery là một dòng trong nhật ký giao hàng (append-only) của một mặt hàng PO.
type GRNDelivery struct {
	GRNID            string    `bson:"grnID,omitempty" json:"grnID"` // ObjectID hex của GRN, được backfill trong cùng transaction
	GRNNumber        string    `bson:"grnNumber" json:"grnNumber"`
	ReceivedQuantity float64   `bson:"receivedQuantity" json:"receivedQuantity"`
	ReceivedDate     time.Time `bson:"receivedDate" json:"receivedDate"`
	Status           GRNStatus `bson:"status" json:"status"`
}

// POItem là một dòng hàng trong đơn đặt hàng.
type POItem struct {
	PartCode          string        `bson:"partCode" json:"partCode"`
	PartName          string        `bson:"partName,omitempty" json:"partName"`
	Unit              string        `bson:"unit,omitempty" json:"unit"`
	OrderedQuantity   float64       `bson:"orderedQuantity" json:"orderedQuantity"`
	DeliveredQuantity float64       `bson:"deliveredQuantity" json:"deliveredQuantity"`
	PendingQuantity   float64       `bson:"pendingQuantity" json:"pendingQuantity"`
	UnitPrice         float64       `bson:"unitPrice" json:"unitPrice"`
	TotalPrice        float64       `bson:"totalPrice" json:"totalPrice"`
	GRNDeliveries     []GRNDelivery `bson:"grnDeliveries" json:"grnDeliveries"`
}

type PurchaseOrder struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	POCode           string             `bson:"poCode" json:"poCode"` // ID dễ đọc, duy nhất, ví dụ: "PO-202609-0001"
	Vendor           VendorSnapshot     `bson:"vendor" json:"vendor"`
	Items            []POItem           `bson:"items" json:"items"`
	Status           POStatus           `bson:"status" json:"status"`
	DeliveryStatus   DeliveryStatus     `bson:"deliveryStatus" json:"deliveryStatus"`
	IsFullyDelivered bool               `bson:"isFullyDelivered" json:"isFullyDelivered"`
	TotalValue       float64            `bson:"totalValue" json:"totalValue"`
	Remarks          string             `bson:"remarks,omitempty" json:"remarks"`
	// Version dùng cho optimistic locking: mọi cập nhật số lượng của PO phải
	// khớp version hiện tại và tăng nó lên, nếu không transaction bị hủy.
	Version   int64     `bson:"version" json:"version"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FindItem trả về con trỏ tới dòng hàng khớp partCode, hoặc nil nếu không có.
func (po *PurchaseOrder) FindItem(partCode string) *POItem {
	for i := range po.Items {
		if po.Items[i].PartCode == partCode {
			return &po.Items[i]
		}
	}
	return nil
}

// CanReceiveGoods cho biết PO có đang ở giai đoạn được phép nhận hàng không.
// Chỉ created / in_progress / grn_created: draft chưa được nộp, còn approved
// và cancelled là trạng thái kết thúc, không quay lui.
func (s POStatus) CanReceiveGoods() bool {
	return s == POStatusCreated || s == POStatusInProgress || s == POStatusGRNCreated
}

// CanTransitionTo kiểm tra một bước chuyển trạng thái của PO có hợp lệ không.
// draft → created → in_progress → grn_created → approved; các trạng thái trước
// grn_created có thể chuyển sang cancelled.
func (s POStatus) CanTransitionTo(next POStatus) bool {
	switch next {
	case POStatusCreated:
		return s == POStatusDraft
	case POStatusInProgress:
		return s == POStatusCreated || s == POStatusInProgress
	case POStatusGRNCreated:
		return s == POStatusCreated || s == POStatusInProgress || s == POStatusGRNCreated
	case POStatusApproved:
		return s == POStatusGRNCreated
	case POStatusCancelled:
		return s == POStatusDraft || s == POStatusCreated || s == POStatusInProgress
	default:
		return false
	}
}
