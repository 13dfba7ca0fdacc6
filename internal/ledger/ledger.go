// server/internal/ledger/ledger.go
//
// Package ledger holds the pure quantity-reconciliation rules shared by the
// GRN and inspection flows. It never touches the database: callers apply the
// returned values inside their own transaction.
package ledger

import (
	"fmt"

	"procureflow-api-server/internal/models"
)

// ApplyDelivery validates one received quantity against a PO line and returns
// the new delivered/pending pair. The input item is not mutated.
func ApplyDelivery(item models.POItem, receivedQty float64) (newDelivered, newPending float64, err error) {
	if receivedQty <= 0 {
		return 0, 0, fmt.Errorf("part %s: received quantity must be positive: %w", item.PartCode, ErrInvalidQuantity)
	}
	newDelivered = item.DeliveredQuantity + receivedQty
	if newDelivered > item.OrderedQuantity {
		return 0, 0, fmt.Errorf("part %s: delivered %.3f + received %.3f exceeds ordered %.3f: %w",
			item.PartCode, item.DeliveredQuantity, receivedQty, item.OrderedQuantity, ErrQuantityExceeded)
	}
	return newDelivered, item.OrderedQuantity - newDelivered, nil
}

// ApplyDisposition validates an explicit accepted/rejected split against the
// received ceiling. Used when the caller supplies both values directly.
func ApplyDisposition(receivedQty, acceptedQty, rejectedQty float64) (accepted, rejected float64, err error) {
	if acceptedQty < 0 || rejectedQty < 0 {
		return 0, 0, fmt.Errorf("disposition quantities must not be negative: %w", ErrInvalidQuantity)
	}
	if acceptedQty+rejectedQty > receivedQty {
		return 0, 0, fmt.Errorf("accepted %.3f + rejected %.3f exceeds received %.3f: %w",
			acceptedQty, rejectedQty, receivedQty, ErrQuantityExceeded)
	}
	return acceptedQty, rejectedQty, nil
}

// DeriveRejected computes the rejected quantity when only acceptance is
// entered: rejected = received − accepted. This is the canonical update-time
// contract; the result is never negative by construction.
func DeriveRejected(receivedQty, acceptedQty float64) (float64, error) {
	if acceptedQty < 0 {
		return 0, fmt.Errorf("accepted quantity must not be negative: %w", ErrInvalidQuantity)
	}
	if acceptedQty > receivedQty {
		return 0, fmt.Errorf("accepted %.3f exceeds received %.3f: %w", acceptedQty, receivedQty, ErrQuantityExceeded)
	}
	return receivedQty - acceptedQty, nil
}

// DeriveOverallResult folds item results into one. Precedence is a hard
// contract: fail dominates conditional dominates pass; all pass means pass;
// anything else stays pending.
func DeriveOverallResult(results []models.InspectionResult) models.InspectionResult {
	if len(results) == 0 {
		return models.ResultPending
	}
	allPass := true
	hasConditional := false
	for _, r := range results {
		switch r {
		case models.ResultFail:
			return models.ResultFail
		case models.ResultConditional:
			hasConditional = true
			allPass = false
		case models.ResultPass:
			// keep allPass
		default:
			allPass = false
		}
	}
	if hasConditional {
		return models.ResultConditional
	}
	if allPass {
		return models.ResultPass
	}
	return models.ResultPending
}

// DeriveDeliveryStatus computes the PO-level delivery status: fully iff every
// line is fully delivered, pending iff nothing was delivered, partial otherwise.
func DeriveDeliveryStatus(items []models.POItem) models.DeliveryStatus {
	if len(items) == 0 {
		return models.DeliveryStatusPending
	}
	allFull := true
	allZero := true
	for _, it := range items {
		if it.DeliveredQuantity < it.OrderedQuantity {
			allFull = false
		}
		if it.DeliveredQuantity > 0 {
			allZero = false
		}
	}
	switch {
	case allFull:
		return models.DeliveryStatusFully
	case allZero:
		return models.DeliveryStatusPending
	default:
		return models.DeliveryStatusPartially
	}
}

// ApplyGRNToPO applies every line of a GRN to the purchase order, all or
// nothing: validation of all lines happens before any mutation, so on error
// the PO is returned to the caller untouched. On success it appends a
// delivery-log entry per line, bumps delivered/pending quantities and
// recomputes the PO delivery status and lifecycle status.
func ApplyGRNToPO(po *models.PurchaseOrder, grn *models.GRN) error {
	type staged struct {
		item         *models.POItem
		newDelivered float64
		newPending   float64
		receivedQty  float64
	}
	stagedItems := make([]staged, 0, len(grn.Items))

	// Quantities already staged per PO line, so a GRN carrying several lines
	// for the same part is validated against the running total, not the
	// untouched PO. Keeps sum(grnDeliveries) == deliveredQuantity.
	stagedDelivered := make(map[*models.POItem]float64)

	for _, line := range grn.Items {
		item := po.FindItem(line.PartCode)
		if item == nil {
			return fmt.Errorf("part %s: %w", line.PartCode, ErrItemNotInOrder)
		}
		probe := *item
		probe.DeliveredQuantity += stagedDelivered[item]
		newDelivered, newPending, err := ApplyDelivery(probe, line.ReceivedQuantity)
		if err != nil {
			return err
		}
		stagedDelivered[item] += line.ReceivedQuantity
		stagedItems = append(stagedItems, staged{
			item:         item,
			newDelivered: newDelivered,
			newPending:   newPending,
			receivedQty:  line.ReceivedQuantity,
		})
	}

	for _, s := range stagedItems {
		s.item.DeliveredQuantity = s.newDelivered
		s.item.PendingQuantity = s.newPending
		s.item.GRNDeliveries = append(s.item.GRNDeliveries, models.GRNDelivery{
			GRNNumber:        grn.GRNNumber,
			ReceivedQuantity: s.receivedQty,
			ReceivedDate:     grn.ReceivedDate,
			Status:           grn.Status,
		})
	}

	po.DeliveryStatus = DeriveDeliveryStatus(po.Items)
	po.IsFullyDelivered = po.DeliveryStatus == models.DeliveryStatusFully
	if po.IsFullyDelivered {
		po.Status = models.POStatusGRNCreated
	} else {
		po.Status = models.POStatusInProgress
	}
	return nil
}

// ReverseGRNFromPO removes a GRN's delivery-log entries from the purchase
// order and restores the quantities they had consumed. Used when a draft GRN
// is deleted or its lines are replaced before submission.
func ReverseGRNFromPO(po *models.PurchaseOrder, grnNumber string) {
	for i := range po.Items {
		item := &po.Items[i]
		kept := item.GRNDeliveries[:0]
		for _, d := range item.GRNDeliveries {
			if d.GRNNumber == grnNumber {
				item.DeliveredQuantity -= d.ReceivedQuantity
				if item.DeliveredQuantity < 0 {
					item.DeliveredQuantity = 0
				}
				continue
			}
			kept = append(kept, d)
		}
		item.GRNDeliveries = kept
		item.PendingQuantity = item.OrderedQuantity - item.DeliveredQuantity
	}

	po.DeliveryStatus = DeriveDeliveryStatus(po.Items)
	po.IsFullyDelivered = po.DeliveryStatus == models.DeliveryStatusFully
	if po.DeliveryStatus == models.DeliveryStatusPending {
		po.Status = models.POStatusCreated
	} else if !po.IsFullyDelivered {
		po.Status = models.POStatusInProgress
	}
}

// SetDeliveryLogStatus updates the logged status of one GRN's entries across
// the PO's lines, keeping the append-only log in step with the GRN lifecycle.
func SetDeliveryLogStatus(po *models.PurchaseOrder, grnNumber string, status models.GRNStatus) {
	for i := range po.Items {
		for j := range po.Items[i].GRNDeliveries {
			if po.Items[i].GRNDeliveries[j].GRNNumber == grnNumber {
				po.Items[i].GRNDeliveries[j].Status = status
			}
		}
	}
}
