// server/internal/api/handlers/common.go
package handlers

import (
	"encoding/json"
	"log"
	"strconv"

	"procureflow-api-server/internal/socket"
)

// parsePositiveInt đọc một tham số phân trang, trả về giá trị mặc định nếu
// tham số rỗng hoặc không hợp lệ.
func parsePositiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// notifyRole gửi thông báo WebSocket đến mọi client thuộc một vai trò.
// Thông báo là fire-and-forget, lỗi chỉ được log.
func notifyRole(hub *socket.Hub, role string, payload map[string]interface{}) {
	if hub == nil {
		return
	}
	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal notification: %v", err)
		return
	}
	hub.SendToRole(role, message)
}
