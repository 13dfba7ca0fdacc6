// server/internal/models/common.go
package models

// VendorSnapshot là bản sao thông tin nhà cung cấp tại thời điểm tạo chứng từ.
// Chỉnh sửa master data về sau KHÔNG làm thay đổi các chứng từ lịch sử.
type VendorSnapshot struct {
	VendorCode    string `bson:"vendorCode" json:"vendorCode"`
	Name          string `bson:"name" json:"name"`
	ContactPerson string `bson:"contactPerson,omitempty" json:"contactPerson"`
	Phone         string `bson:"phone,omitempty" json:"phone"`
	Email         string `bson:"email,omitempty" json:"email"`
	Address       string `bson:"address,omitempty" json:"address"`
}

// TransportDetails lưu thông tin vận chuyển kèm theo một phiếu nhập kho.
type TransportDetails struct {
	TransporterName string  `bson:"transporterName,omitempty" json:"transporterName"`
	VehicleNumber   string  `bson:"vehicleNumber,omitempty" json:"vehicleNumber"`
	LRNumber        string  `bson:"lrNumber,omitempty" json:"lrNumber"` // Số vận đơn (Lorry Receipt)
	FreightCharges  float64 `bson:"freightCharges,omitempty" json:"freightCharges"`
}

// InspectionParameter là một chỉ tiêu kiểm tra chất lượng tự do (tên/spec/quan sát/kết quả).
type InspectionParameter struct {
	Name          string `bson:"name" json:"name"`
	Specification string `bson:"specification,omitempty" json:"specification"`
	Observation   string `bson:"observation,omitempty" json:"observation"`
	Result        string `bson:"result,omitempty" json:"result"` // e.g., "OK", "NOT_OK"
}

// MediaPointer đại diện cho một tài liệu media được lưu trữ trên S3 hoặc dịch vụ tương tự.
type MediaPointer struct {
	ID       string `bson:"id" json:"id"`             // ID duy nhất trong hệ thống
	URL      string `bson:"url" json:"url"`           // URL truy cập tài liệu
	FileName string `bson:"fileName" json:"fileName"` // Tên file gốc
	FileType string `bson:"fileType" json:"fileType"` // Loại file, ví dụ: "image/jpeg", "application/pdf"
}
