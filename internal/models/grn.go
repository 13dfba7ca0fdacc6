// server/internal/models/grn.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GRNStatus là trạng thái vòng đời của phiếu nhập kho.
type GRNStatus string

const (
	GRNStatusDraft                GRNStatus = "DRAFT"
	GRNStatusSubmitted            GRNStatus = "SUBMITTED"
	GRNStatusInspectionPending    GRNStatus = "INSPECTION_PENDING"
	GRNStatusInspectionInProgress GRNStatus = "INSPECTION_IN_PROGRESS"
	GRNStatusInspectionCompleted  GRNStatus = "INSPECTION_COMPLETED"
	GRNStatusApproved             GRNStatus = "APPROVED"
	GRNStatusRejected             GRNStatus = "REJECTED"
)

// GRNItem là một dòng hàng đã nhận trong phiếu nhập kho.
type GRNItem struct {
	PartCode         string  `bson:"partCode" json:"partCode"`
	PartName         string  `bson:"partName,omitempty" json:"partName"`
	Unit             string  `bson:"unit,omitempty" json:"unit"`
	OrderedQuantity  float64 `bson:"orderedQuantity" json:"orderedQuantity"` // snapshot từ PO tại thời điểm tạo
	ReceivedQuantity float64 `bson:"receivedQuantity" json:"receivedQuantity"`
	UnitPrice        float64 `bson:"unitPrice" json:"unitPrice"`
	TotalPrice       float64 `bson:"totalPrice" json:"totalPrice"` // = receivedQuantity × unitPrice
	Remarks          string  `bson:"remarks,omitempty" json:"remarks"`
}

type GRN struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GRNNumber     string             `bson:"grnNumber" json:"grnNumber"` // ví dụ: "GRN-2026-09-00001", reset theo tháng
	POCode        string             `bson:"poCode" json:"poCode"`
	Vendor        VendorSnapshot     `bson:"vendor" json:"vendor"` // snapshot, không live-link
	ChallanNumber string             `bson:"challanNumber" json:"challanNumber"`
	ChallanDate   time.Time          `bson:"challanDate" json:"challanDate"`
	ReceivedDate  time.Time          `bson:"receivedDate" json:"receivedDate"`
	Transport     TransportDetails   `bson:"transport,omitempty" json:"transport"`
	Items         []GRNItem          `bson:"items" json:"items"`
	Status        GRNStatus          `bson:"status" json:"status"`
	TotalValue    float64            `bson:"totalValue" json:"totalValue"`
	// InvoiceNumber được sinh sẵn từ GRNNumber để đảm bảo ánh xạ 1:1
	// với hóa đơn sau này, không đánh số độc lập.
	InvoiceNumber string         `bson:"invoiceNumber" json:"invoiceNumber"`
	ChallanPhotos []MediaPointer `bson:"challanPhotos,omitempty" json:"challanPhotos"`
	Remarks       string         `bson:"remarks,omitempty" json:"remarks"`
	CreatedBy     string         `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// InspectionReady cho biết GRN đã sẵn sàng để tạo phiếu kiểm tra chất lượng chưa.
func (s GRNStatus) InspectionReady() bool {
	return s == GRNStatusInspectionPending || s == GRNStatusSubmitted
}

// Terminal cho biết trạng thái này có phải trạng thái kết thúc của GRN không.
func (s GRNStatus) Terminal() bool {
	return s == GRNStatusApproved || s == GRNStatusRejected
}
