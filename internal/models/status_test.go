package models_test

import (
	"testing"

	"procureflow-api-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPOStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from models.POStatus
		to   models.POStatus
		ok   bool
	}{
		{models.POStatusDraft, models.POStatusCreated, true},
		{models.POStatusDraft, models.POStatusApproved, false},
		{models.POStatusCreated, models.POStatusInProgress, true},
		{models.POStatusCreated, models.POStatusGRNCreated, true},
		{models.POStatusInProgress, models.POStatusGRNCreated, true},
		{models.POStatusGRNCreated, models.POStatusApproved, true},
		{models.POStatusInProgress, models.POStatusApproved, false},
		{models.POStatusDraft, models.POStatusCancelled, true},
		{models.POStatusCreated, models.POStatusCancelled, true},
		{models.POStatusInProgress, models.POStatusCancelled, true},
		{models.POStatusGRNCreated, models.POStatusCancelled, false},
		{models.POStatusApproved, models.POStatusCancelled, false},
		{models.POStatusCancelled, models.POStatusCreated, false},
		{models.POStatusApproved, models.POStatusGRNCreated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPOStatusCanReceiveGoods(t *testing.T) {
	assert.True(t, models.POStatusCreated.CanReceiveGoods())
	assert.True(t, models.POStatusInProgress.CanReceiveGoods())
	assert.True(t, models.POStatusGRNCreated.CanReceiveGoods())
	assert.False(t, models.POStatusDraft.CanReceiveGoods())
	assert.False(t, models.POStatusApproved.CanReceiveGoods())
	assert.False(t, models.POStatusCancelled.CanReceiveGoods())
}

func TestGRNStatusInspectionReady(t *testing.T) {
	assert.True(t, models.GRNStatusInspectionPending.InspectionReady())
	assert.True(t, models.GRNStatusSubmitted.InspectionReady())
	assert.False(t, models.GRNStatusDraft.InspectionReady())
	assert.False(t, models.GRNStatusInspectionInProgress.InspectionReady())
	assert.False(t, models.GRNStatusApproved.InspectionReady())
}

func TestGRNStatusTerminal(t *testing.T) {
	assert.True(t, models.GRNStatusApproved.Terminal())
	assert.True(t, models.GRNStatusRejected.Terminal())
	assert.False(t, models.GRNStatusDraft.Terminal())
	assert.False(t, models.GRNStatusInspectionCompleted.Terminal())
}

func TestGRNStatusForResult(t *testing.T) {
	assert.Equal(t, models.GRNStatusApproved, models.GRNStatusForResult(models.ResultPass))
	assert.Equal(t, models.GRNStatusRejected, models.GRNStatusForResult(models.ResultFail))
	assert.Equal(t, models.GRNStatusInspectionCompleted, models.GRNStatusForResult(models.ResultConditional))
	assert.Equal(t, models.GRNStatusInspectionCompleted, models.GRNStatusForResult(models.ResultPending))
}

func TestVendorSnapshot(t *testing.T) {
	vendor := models.Vendor{
		VendorCode:    "VND-001",
		Name:          "Precision Castings",
		ContactPerson: "R. Mehta",
		Phone:         "+91-98000-00000",
		Email:         "sales@precision.example",
		Address:       "Plot 14, MIDC",
		GSTNumber:     "27AAAAA0000A1Z5",
		Status:        "ACTIVE",
	}

	snap := vendor.Snapshot()
	assert.Equal(t, vendor.VendorCode, snap.VendorCode)
	assert.Equal(t, vendor.Name, snap.Name)
	assert.Equal(t, vendor.ContactPerson, snap.ContactPerson)

	// Snapshot là bản sao: đổi master không ảnh hưởng chứng từ đã nhúng.
	vendor.Name = "Renamed Vendor"
	assert.Equal(t, "Precision Castings", snap.Name)
}

func TestPurchaseOrderFindItem(t *testing.T) {
	po := models.PurchaseOrder{
		Items: []models.POItem{
			{PartCode: "PRT-0001"},
			{PartCode: "PRT-0002"},
		},
	}

	item := po.FindItem("PRT-0002")
	if assert.NotNil(t, item) {
		assert.Equal(t, "PRT-0002", item.PartCode)
	}
	assert.Nil(t, po.FindItem("PRT-9999"))

	// FindItem trả về con trỏ vào slice, sửa qua con trỏ là sửa PO thật.
	item.PartName = "Shaft seal"
	assert.Equal(t, "Shaft seal", po.Items[1].PartName)
}
