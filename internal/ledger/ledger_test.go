package ledger_test

import (
	"testing"
	"time"

	"procureflow-api-server/internal/ledger"
	"procureflow-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPO() models.PurchaseOrder {
	return models.PurchaseOrder{
		POCode: "PO-202609-0001",
		Status: models.POStatusCreated,
		Items: []models.POItem{
			{
				PartCode:        "PRT-0001",
				PartName:        "Bearing housing",
				Unit:            "NOS",
				OrderedQuantity: 100,
				PendingQuantity: 100,
				UnitPrice:       50,
				GRNDeliveries:   []models.GRNDelivery{},
			},
			{
				PartCode:        "PRT-0002",
				PartName:        "Shaft seal",
				Unit:            "NOS",
				OrderedQuantity: 40,
				PendingQuantity: 40,
				UnitPrice:       12,
				GRNDeliveries:   []models.GRNDelivery{},
			},
		},
		DeliveryStatus: models.DeliveryStatusPending,
	}
}

func newTestGRN(number string, lines map[string]float64) models.GRN {
	grn := models.GRN{
		GRNNumber:    number,
		POCode:       "PO-202609-0001",
		Status:       models.GRNStatusInspectionPending,
		ReceivedDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	for partCode, qty := range lines {
		grn.Items = append(grn.Items, models.GRNItem{
			PartCode:         partCode,
			ReceivedQuantity: qty,
		})
	}
	return grn
}

func TestApplyDelivery(t *testing.T) {
	item := models.POItem{PartCode: "PRT-0001", OrderedQuantity: 100, DeliveredQuantity: 60, PendingQuantity: 40}

	t.Run("valid partial delivery", func(t *testing.T) {
		delivered, pending, err := ledger.ApplyDelivery(item, 30)
		require.NoError(t, err)
		assert.Equal(t, 90.0, delivered)
		assert.Equal(t, 10.0, pending)
	})

	t.Run("exact completion", func(t *testing.T) {
		delivered, pending, err := ledger.ApplyDelivery(item, 40)
		require.NoError(t, err)
		assert.Equal(t, 100.0, delivered)
		assert.Equal(t, 0.0, pending)
	})

	t.Run("over-delivery is rejected", func(t *testing.T) {
		_, _, err := ledger.ApplyDelivery(item, 41)
		assert.ErrorIs(t, err, ledger.ErrQuantityExceeded)
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		_, _, err := ledger.ApplyDelivery(item, 0)
		assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		_, _, err := ledger.ApplyDelivery(item, -5)
		assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})

	t.Run("input item is not mutated", func(t *testing.T) {
		_, _, err := ledger.ApplyDelivery(item, 10)
		require.NoError(t, err)
		assert.Equal(t, 60.0, item.DeliveredQuantity)
		assert.Equal(t, 40.0, item.PendingQuantity)
	})
}

func TestApplyDisposition(t *testing.T) {
	t.Run("valid split", func(t *testing.T) {
		accepted, rejected, err := ledger.ApplyDisposition(50, 45, 5)
		require.NoError(t, err)
		assert.Equal(t, 45.0, accepted)
		assert.Equal(t, 5.0, rejected)
	})

	t.Run("split exceeding received is rejected", func(t *testing.T) {
		_, _, err := ledger.ApplyDisposition(50, 45, 10)
		assert.ErrorIs(t, err, ledger.ErrQuantityExceeded)
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		_, _, err := ledger.ApplyDisposition(50, -1, 5)
		assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})
}

func TestDeriveRejected(t *testing.T) {
	t.Run("rejected is the remainder", func(t *testing.T) {
		rejected, err := ledger.DeriveRejected(50, 45)
		require.NoError(t, err)
		assert.Equal(t, 5.0, rejected)
	})

	t.Run("full acceptance leaves zero rejected", func(t *testing.T) {
		rejected, err := ledger.DeriveRejected(50, 50)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rejected)
	})

	t.Run("accepted above received is rejected", func(t *testing.T) {
		_, err := ledger.DeriveRejected(50, 51)
		assert.ErrorIs(t, err, ledger.ErrQuantityExceeded)
	})

	t.Run("negative accepted is rejected", func(t *testing.T) {
		_, err := ledger.DeriveRejected(50, -1)
		assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})
}

func TestDeriveOverallResult(t *testing.T) {
	tests := []struct {
		name    string
		results []models.InspectionResult
		want    models.InspectionResult
	}{
		{"empty is pending", nil, models.ResultPending},
		{"all pass", []models.InspectionResult{models.ResultPass, models.ResultPass}, models.ResultPass},
		{"fail dominates everything", []models.InspectionResult{models.ResultPass, models.ResultConditional, models.ResultFail}, models.ResultFail},
		{"conditional dominates pass", []models.InspectionResult{models.ResultPass, models.ResultConditional}, models.ResultConditional},
		{"pending line keeps overall pending", []models.InspectionResult{models.ResultPass, models.ResultPending}, models.ResultPending},
		{"single fail", []models.InspectionResult{models.ResultFail}, models.ResultFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.DeriveOverallResult(tt.results))
		})
	}
}

func TestDeriveDeliveryStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []models.POItem
		want  models.DeliveryStatus
	}{
		{"no items", nil, models.DeliveryStatusPending},
		{
			"nothing delivered",
			[]models.POItem{{OrderedQuantity: 10}, {OrderedQuantity: 5}},
			models.DeliveryStatusPending,
		},
		{
			"one line partially delivered",
			[]models.POItem{{OrderedQuantity: 10, DeliveredQuantity: 3}, {OrderedQuantity: 5}},
			models.DeliveryStatusPartially,
		},
		{
			"one line full one line empty",
			[]models.POItem{{OrderedQuantity: 10, DeliveredQuantity: 10}, {OrderedQuantity: 5}},
			models.DeliveryStatusPartially,
		},
		{
			"all lines full",
			[]models.POItem{{OrderedQuantity: 10, DeliveredQuantity: 10}, {OrderedQuantity: 5, DeliveredQuantity: 5}},
			models.DeliveryStatusFully,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.DeriveDeliveryStatus(tt.items))
		})
	}
}

func TestApplyGRNToPO_PartialDelivery(t *testing.T) {
	po := newTestPO()
	grn := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60})

	require.NoError(t, ledger.ApplyGRNToPO(&po, &grn))

	item := po.FindItem("PRT-0001")
	assert.Equal(t, 60.0, item.DeliveredQuantity)
	assert.Equal(t, 40.0, item.PendingQuantity)
	require.Len(t, item.GRNDeliveries, 1)
	assert.Equal(t, "GRN-2026-09-00001", item.GRNDeliveries[0].GRNNumber)
	assert.Equal(t, 60.0, item.GRNDeliveries[0].ReceivedQuantity)

	assert.Equal(t, models.DeliveryStatusPartially, po.DeliveryStatus)
	assert.False(t, po.IsFullyDelivered)
	assert.Equal(t, models.POStatusInProgress, po.Status)
}

func TestApplyGRNToPO_CompletionAcrossTwoGRNs(t *testing.T) {
	po := newTestPO()

	first := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60, "PRT-0002": 40})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &first))
	assert.Equal(t, models.DeliveryStatusPartially, po.DeliveryStatus)

	second := newTestGRN("GRN-2026-09-00002", map[string]float64{"PRT-0001": 40})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &second))

	assert.Equal(t, models.DeliveryStatusFully, po.DeliveryStatus)
	assert.True(t, po.IsFullyDelivered)
	assert.Equal(t, models.POStatusGRNCreated, po.Status)

	item := po.FindItem("PRT-0001")
	assert.Equal(t, 100.0, item.DeliveredQuantity)
	assert.Equal(t, 0.0, item.PendingQuantity)
	assert.Len(t, item.GRNDeliveries, 2)
}

func TestApplyGRNToPO_OverDeliveryRejected(t *testing.T) {
	po := newTestPO()
	first := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &first))

	second := newTestGRN("GRN-2026-09-00002", map[string]float64{"PRT-0001": 41})
	err := ledger.ApplyGRNToPO(&po, &second)
	assert.ErrorIs(t, err, ledger.ErrQuantityExceeded)
}

func TestApplyGRNToPO_UnknownPartRejected(t *testing.T) {
	po := newTestPO()
	grn := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-9999": 1})

	err := ledger.ApplyGRNToPO(&po, &grn)
	assert.ErrorIs(t, err, ledger.ErrItemNotInOrder)
}

func TestApplyGRNToPO_AllOrNothing(t *testing.T) {
	// Dòng thứ hai vượt trần: dòng thứ nhất hợp lệ cũng không được áp.
	po := newTestPO()
	grn := models.GRN{
		GRNNumber: "GRN-2026-09-00001",
		Items: []models.GRNItem{
			{PartCode: "PRT-0001", ReceivedQuantity: 10},
			{PartCode: "PRT-0002", ReceivedQuantity: 41},
		},
	}

	err := ledger.ApplyGRNToPO(&po, &grn)
	require.ErrorIs(t, err, ledger.ErrQuantityExceeded)

	for _, item := range po.Items {
		assert.Equal(t, 0.0, item.DeliveredQuantity)
		assert.Equal(t, item.OrderedQuantity, item.PendingQuantity)
		assert.Empty(t, item.GRNDeliveries)
	}
	assert.Equal(t, models.DeliveryStatusPending, po.DeliveryStatus)
	assert.Equal(t, models.POStatusCreated, po.Status)
}

func TestApplyGRNToPO_DuplicatePartLinesAccumulate(t *testing.T) {
	// Hai dòng cùng một part trong một phiếu phải được cộng dồn,
	// và tổng nhật ký giao hàng phải khớp deliveredQuantity.
	po := newTestPO()
	grn := models.GRN{
		GRNNumber: "GRN-2026-09-00001",
		Items: []models.GRNItem{
			{PartCode: "PRT-0001", ReceivedQuantity: 30},
			{PartCode: "PRT-0001", ReceivedQuantity: 40},
		},
	}

	require.NoError(t, ledger.ApplyGRNToPO(&po, &grn))

	item := po.FindItem("PRT-0001")
	assert.Equal(t, 70.0, item.DeliveredQuantity)
	assert.Equal(t, 30.0, item.PendingQuantity)
	require.Len(t, item.GRNDeliveries, 2)

	var logSum float64
	for _, d := range item.GRNDeliveries {
		logSum += d.ReceivedQuantity
	}
	assert.Equal(t, item.DeliveredQuantity, logSum)
}

func TestApplyGRNToPO_DuplicatePartLinesOverCeiling(t *testing.T) {
	// Từng dòng nằm trong trần nhưng tổng hai dòng vượt: cả phiếu bị từ chối,
	// PO không bị sửa.
	po := newTestPO()
	grn := models.GRN{
		GRNNumber: "GRN-2026-09-00001",
		Items: []models.GRNItem{
			{PartCode: "PRT-0001", ReceivedQuantity: 60},
			{PartCode: "PRT-0001", ReceivedQuantity: 60},
		},
	}

	err := ledger.ApplyGRNToPO(&po, &grn)
	require.ErrorIs(t, err, ledger.ErrQuantityExceeded)

	item := po.FindItem("PRT-0001")
	assert.Equal(t, 0.0, item.DeliveredQuantity)
	assert.Equal(t, 100.0, item.PendingQuantity)
	assert.Empty(t, item.GRNDeliveries)
}

func TestReverseGRNFromPO(t *testing.T) {
	po := newTestPO()
	first := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60})
	second := newTestGRN("GRN-2026-09-00002", map[string]float64{"PRT-0001": 20, "PRT-0002": 10})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &first))
	require.NoError(t, ledger.ApplyGRNToPO(&po, &second))

	ledger.ReverseGRNFromPO(&po, "GRN-2026-09-00002")

	item1 := po.FindItem("PRT-0001")
	assert.Equal(t, 60.0, item1.DeliveredQuantity)
	assert.Equal(t, 40.0, item1.PendingQuantity)
	require.Len(t, item1.GRNDeliveries, 1)
	assert.Equal(t, "GRN-2026-09-00001", item1.GRNDeliveries[0].GRNNumber)

	item2 := po.FindItem("PRT-0002")
	assert.Equal(t, 0.0, item2.DeliveredQuantity)
	assert.Empty(t, item2.GRNDeliveries)

	assert.Equal(t, models.DeliveryStatusPartially, po.DeliveryStatus)
	assert.Equal(t, models.POStatusInProgress, po.Status)
}

func TestReverseGRNFromPO_LastGRNRestoresPending(t *testing.T) {
	po := newTestPO()
	grn := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &grn))

	ledger.ReverseGRNFromPO(&po, "GRN-2026-09-00001")

	assert.Equal(t, models.DeliveryStatusPending, po.DeliveryStatus)
	assert.False(t, po.IsFullyDelivered)
	assert.Equal(t, models.POStatusCreated, po.Status)
	item := po.FindItem("PRT-0001")
	assert.Equal(t, 0.0, item.DeliveredQuantity)
	assert.Equal(t, 100.0, item.PendingQuantity)
}

func TestSetDeliveryLogStatus(t *testing.T) {
	po := newTestPO()
	first := newTestGRN("GRN-2026-09-00001", map[string]float64{"PRT-0001": 60, "PRT-0002": 10})
	second := newTestGRN("GRN-2026-09-00002", map[string]float64{"PRT-0001": 20})
	require.NoError(t, ledger.ApplyGRNToPO(&po, &first))
	require.NoError(t, ledger.ApplyGRNToPO(&po, &second))

	ledger.SetDeliveryLogStatus(&po, "GRN-2026-09-00001", models.GRNStatusApproved)

	for _, item := range po.Items {
		for _, d := range item.GRNDeliveries {
			if d.GRNNumber == "GRN-2026-09-00001" {
				assert.Equal(t, models.GRNStatusApproved, d.Status)
			} else {
				assert.NotEqual(t, models.GRNStatusApproved, d.Status)
			}
		}
	}
}
