// server/internal/models/inspection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InspectionStatus là trạng thái vòng đời của phiếu kiểm tra chất lượng.
// Một chiều: pending → in_progress → completed, không quay lui từ completed.
type InspectionStatus string

const (
	InspectionStatusPending    InspectionStatus = "PENDING"
	InspectionStatusInProgress InspectionStatus = "IN_PROGRESS"
	InspectionStatusCompleted  InspectionStatus = "COMPLETED"
)

// InspectionResult là kết quả kiểm tra của một dòng hàng hoặc toàn phiếu.
type InspectionResult string

const (
	ResultPending     InspectionResult = "PENDING"
	ResultPass        InspectionResult = "PASS"
	ResultFail        InspectionResult = "FAIL"
	ResultConditional InspectionResult = "CONDITIONAL"
)

// InspectionItem phản chiếu một dòng hàng GRN kèm phân bổ chấp nhận/từ chối.
type InspectionItem struct {
	PartCode string `bson:"partCode" json:"partCode"`
	PartName string `bson:"partName,omitempty" json:"partName"`
	Unit     string `bson:"unit,omitempty" json:"unit"`
	// ReceivedQuantity copy từ GRN, là mức trần bất biến cho accepted+rejected.
	ReceivedQuantity float64               `bson:"receivedQuantity" json:"receivedQuantity"`
	AcceptedQuantity float64               `bson:"acceptedQuantity" json:"acceptedQuantity"`
	RejectedQuantity float64               `bson:"rejectedQuantity" json:"rejectedQuantity"`
	Parameters       []InspectionParameter `bson:"parameters,omitempty" json:"parameters"`
	Result           InspectionResult      `bson:"result" json:"result"`
	Remarks          string                `bson:"remarks,omitempty" json:"remarks"`
}

type Inspection struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InspectionNumber string             `bson:"inspectionNumber" json:"inspectionNumber"` // ví dụ: "INSP-202609-0001", reset theo tháng
	GRNNumber        string             `bson:"grnNumber" json:"grnNumber"`               // 1:1 — mỗi GRN có tối đa một Inspection
	POCode           string             `bson:"poCode" json:"poCode"`
	Vendor           VendorSnapshot     `bson:"vendor" json:"vendor"`
	Items            []InspectionItem   `bson:"items" json:"items"`
	Status           InspectionStatus   `bson:"status" json:"status"`
	OverallResult    InspectionResult   `bson:"overallResult" json:"overallResult"` // dẫn xuất, không do client đặt sau khi hoàn tất
	Remarks          string             `bson:"remarks,omitempty" json:"remarks"`
	CompletionDate   *time.Time         `bson:"completionDate,omitempty" json:"completionDate"`
	ReportPhotos     []MediaPointer     `bson:"reportPhotos,omitempty" json:"reportPhotos"`
	CreatedBy        string             `bson:"createdBy" json:"createdBy"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindItem trả về con trỏ tới dòng kiểm tra khớp partCode, hoặc nil nếu không có.
func (insp *Inspection) FindItem(partCode string) *InspectionItem {
	for i := range insp.Items {
		if insp.Items[i].PartCode == partCode {
			return &insp.Items[i]
		}
	}
	return nil
}

// GRNStatusForResult ánh xạ kết quả tổng hợp của phiếu kiểm tra sang trạng thái GRN
// khi phiếu được hoàn tất: pass → approved, fail → rejected, conditional → inspection_completed.
func GRNStatusForResult(result InspectionResult) GRNStatus {
	switch result {
	case ResultPass:
		return GRNStatusApproved
	case ResultFail:
		return GRNStatusRejected
	default:
		return GRNStatusInspectionCompleted
	}
}
